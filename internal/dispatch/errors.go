package dispatch

import "fmt"

// UnknownKeyTokenError reports a token with no entry in the key code table.
// It is informational: resolution drops the token and continues.
type UnknownKeyTokenError struct {
	Token string
}

func (e *UnknownKeyTokenError) Error() string {
	return fmt.Sprintf("unknown key token %q", e.Token)
}

// UnknownTokens returns an error for every token in keys that has no
// key code. It is used to warn about definitions at load time.
func UnknownTokens(keys []string) []error {
	var errs []error
	for _, k := range keys {
		if !IsKnownToken(k) {
			errs = append(errs, &UnknownKeyTokenError{Token: k})
		}
	}
	return errs
}
