package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reserved info keys used for display.
const (
	KeyFirstName   = "@firstName"
	KeyMiddleName  = "@middleName"
	KeyLastName    = "@lastName"
	KeyDateOfBirth = "@dateOfBirth"
	KeyDateOfDeath = "@dateOfDeath"
	KeyImage       = "@image"
)

// Field is a single info entry.
type Field struct {
	Key   string `validate:"infokey"`
	Value string
}

// Info is an ordered list of key/value pairs attached to a person. Keys are
// unique; insertion order is kept and used for serialization.
type Info []Field

// Get returns the value stored under key.
func (in Info) Get(key string) (string, bool) {
	for _, f := range in {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Set returns a copy of in with key set to value. An existing key keeps its
// position; a new key is appended.
func (in Info) Set(key, value string) Info {
	out := in.Clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// Delete returns a copy of in without key, plus the removed value.
func (in Info) Delete(key string) (Info, string, bool) {
	for i, f := range in {
		if f.Key == key {
			out := make(Info, 0, len(in)-1)
			out = append(out, in[:i]...)
			out = append(out, in[i+1:]...)
			return out, f.Value, true
		}
	}
	return in.Clone(), "", false
}

// Keys returns the keys in insertion order.
func (in Info) Keys() []string {
	keys := make([]string, len(in))
	for i, f := range in {
		keys[i] = f.Key
	}
	return keys
}

// Clone returns an independent copy. A nil Info stays nil.
func (in Info) Clone() Info {
	if in == nil {
		return nil
	}
	out := make(Info, len(in))
	copy(out, in)
	return out
}

// MarshalJSON emits a JSON object with keys in insertion order.
func (in Info) MarshalJSON() ([]byte, error) {
	if in == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range in {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the key order of the document.
func (in *Info) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*in = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("info: expected object, got %v", tok)
	}
	out := Info{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("info: expected string key, got %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("info %q: %w", key, err)
		}
		out = out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*in = out
	return nil
}

// MarshalYAML emits a mapping node with keys in insertion order.
func (in Info) MarshalYAML() (any, error) {
	if in == nil {
		return nil, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range in {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping node keeping the key order of the document.
func (in *Info) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*in = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("info: expected mapping at line %d", value.Line)
	}
	out := Info{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		out = out.Set(value.Content[i].Value, value.Content[i+1].Value)
	}
	*in = out
	return nil
}

// HasName reports whether any name key holds a non-blank value.
func (in Info) HasName() bool { return len(in.nameParts()) > 0 }

// Name joins the first, middle and last name, or returns "Unknown" when
// none are set.
func (in Info) Name() string {
	parts := in.nameParts()
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, " ")
}

func (in Info) nameParts() []string {
	var parts []string
	for _, key := range []string{KeyFirstName, KeyMiddleName, KeyLastName} {
		if v, ok := in.Get(key); ok && strings.TrimSpace(v) != "" {
			parts = append(parts, strings.TrimSpace(v))
		}
	}
	return parts
}

// Initials returns the upper-cased first letters of first and last name.
func (in Info) Initials() string {
	var b strings.Builder
	for _, key := range []string{KeyFirstName, KeyLastName} {
		if v, ok := in.Get(key); ok {
			if r := []rune(strings.TrimSpace(v)); len(r) > 0 {
				b.WriteString(strings.ToUpper(string(r[0])))
			}
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// Lifespan formats birth and death dates as "birth - death", "* birth" or
// "† death". It returns "" when neither is set.
func (in Info) Lifespan() string {
	birth, hasBirth := in.Get(KeyDateOfBirth)
	death, hasDeath := in.Get(KeyDateOfDeath)
	switch {
	case !hasBirth && !hasDeath:
		return ""
	case !hasDeath:
		return "* " + birth
	case !hasBirth:
		return "† " + death
	}
	return birth + " - " + death
}
