// Package shortcut defines the data model shared by the keystrike engine:
// symbolic key tokens, modifier sets, shortcut definitions, groups, and the
// immutable catalog snapshot that readers search and resolve against.
//
// Tokens are platform-independent uppercase names such as "COMMAND", "SHIFT",
// "A", "4" or "SPACE". Modifier tokens form a set; every other token is a key
// token whose position in the list is significant.
package shortcut
