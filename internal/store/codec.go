package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// document is the format-neutral content of one definition file.
type document struct {
	Name      string
	Shortcuts []entry
}

type entry struct {
	Description string
	Keys        []string
}

// Codec decodes one definition file format.
type Codec interface {
	// Name returns the format name.
	Name() string

	// Extensions returns the lowercase file extensions handled, with dot.
	Extensions() []string

	// Decode parses data read from path. Missing required fields
	// are reported as *ParseError.
	Decode(path string, data []byte) (document, error)
}

// Codecs maps file extensions to codecs.
type Codecs struct {
	byExt map[string]Codec
}

// NewCodecs returns a registry holding the given codecs.
func NewCodecs(codecs ...Codec) *Codecs {
	r := &Codecs{byExt: make(map[string]Codec)}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// DefaultCodecs returns the JSON, YAML, TOML and Lua codecs.
func DefaultCodecs() *Codecs {
	return NewCodecs(JSONCodec{}, YAMLCodec{}, TOMLCodec{}, LuaCodec{})
}

// Register adds c for each of its extensions, replacing earlier entries.
func (r *Codecs) Register(c Codec) {
	for _, ext := range c.Extensions() {
		r.byExt[strings.ToLower(ext)] = c
	}
}

// For returns the codec for path's extension.
func (r *Codecs) For(path string) (Codec, bool) {
	c, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return c, ok
}

// JSONCodec reads definition files with gjson.
type JSONCodec struct{}

func (JSONCodec) Name() string         { return "json" }
func (JSONCodec) Extensions() []string { return []string{".json"} }

func (JSONCodec) Decode(path string, data []byte) (document, error) {
	if !gjson.ValidBytes(data) {
		return document{}, &ParseError{Path: path, Message: "invalid JSON"}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return document{}, &ParseError{Path: path, Message: "top level must be an object"}
	}

	name := root.Get("name")
	if name.Type != gjson.String {
		return document{}, missing(path, "name")
	}
	list := root.Get("shortcuts")
	if !list.IsArray() {
		return document{}, missing(path, "shortcuts")
	}

	doc := document{Name: name.String()}
	for i, item := range list.Array() {
		desc := item.Get("description")
		if desc.Type != gjson.String {
			return document{}, missing(path, fmt.Sprintf("shortcuts[%d].description", i))
		}
		keys := item.Get("keys")
		if !keys.IsArray() {
			return document{}, missing(path, fmt.Sprintf("shortcuts[%d].keys", i))
		}
		e := entry{Description: desc.String()}
		for j, k := range keys.Array() {
			var v any
			switch k.Type {
			case gjson.String:
				v = k.String()
			case gjson.Number:
				if n, err := strconv.ParseInt(k.Raw, 10, 64); err == nil {
					v = n
				}
			}
			tok, ok := keyToken(v)
			if !ok {
				return document{}, badKey(path, i, j)
			}
			e.Keys = append(e.Keys, tok)
		}
		doc.Shortcuts = append(doc.Shortcuts, e)
	}
	return doc, nil
}

// fileDocument is the tagged shape shared by the YAML and TOML codecs.
// Pointer fields distinguish absent values from empty ones.
type fileDocument struct {
	Name      *string      `yaml:"name" toml:"name"`
	Shortcuts *[]fileEntry `yaml:"shortcuts" toml:"shortcuts"`
}

type fileEntry struct {
	Description *string `yaml:"description" toml:"description"`
	Keys        []any   `yaml:"keys" toml:"keys"`
}

func (f fileDocument) toDocument(path string) (document, error) {
	if f.Name == nil {
		return document{}, missing(path, "name")
	}
	if f.Shortcuts == nil {
		return document{}, missing(path, "shortcuts")
	}

	doc := document{Name: *f.Name}
	for i, s := range *f.Shortcuts {
		if s.Description == nil {
			return document{}, missing(path, fmt.Sprintf("shortcuts[%d].description", i))
		}
		if s.Keys == nil {
			return document{}, missing(path, fmt.Sprintf("shortcuts[%d].keys", i))
		}
		e := entry{Description: *s.Description, Keys: make([]string, 0, len(s.Keys))}
		for j, k := range s.Keys {
			tok, ok := keyToken(k)
			if !ok {
				return document{}, badKey(path, i, j)
			}
			e.Keys = append(e.Keys, tok)
		}
		doc.Shortcuts = append(doc.Shortcuts, e)
	}
	return doc, nil
}

// keyToken converts one decoded key value to token text. Strings are taken
// as written and non-negative integers name digit keys, so an unquoted 3
// reads as "3" in every format. Any other value is rejected.
func keyToken(v any) (string, bool) {
	switch k := v.(type) {
	case string:
		return k, true
	case int:
		if k >= 0 {
			return strconv.Itoa(k), true
		}
	case int64:
		if k >= 0 {
			return strconv.FormatInt(k, 10), true
		}
	case uint64:
		return strconv.FormatUint(k, 10), true
	}
	return "", false
}

func badKey(path string, i, j int) *ParseError {
	return &ParseError{
		Path:    path,
		Message: fmt.Sprintf("shortcuts[%d].keys[%d] must be a string or a digit", i, j),
	}
}

// YAMLCodec reads definition files with yaml.v3.
type YAMLCodec struct{}

func (YAMLCodec) Name() string         { return "yaml" }
func (YAMLCodec) Extensions() []string { return []string{".yaml", ".yml"} }

func (YAMLCodec) Decode(path string, data []byte) (document, error) {
	var f fileDocument
	if err := yaml.Unmarshal(data, &f); err != nil {
		return document{}, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return f.toDocument(path)
}

// TOMLCodec reads definition files with go-toml.
type TOMLCodec struct{}

func (TOMLCodec) Name() string         { return "toml" }
func (TOMLCodec) Extensions() []string { return []string{".toml"} }

func (TOMLCodec) Decode(path string, data []byte) (document, error) {
	var f fileDocument
	if err := toml.Unmarshal(data, &f); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return document{}, pe
	}
	return f.toDocument(path)
}
