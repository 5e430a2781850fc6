package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/familygrid/pkg/errors"
)

// Format names a tree file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("infokey", func(fl validator.FieldLevel) bool {
		return errors.ValidateInfoKey(fl.Field().String()) == nil
	})
}

// FormatFromPath picks the encoding from a file extension. Unknown
// extensions fall back to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode reads a snapshot in the given format, validates field constraints
// and runs [Check].
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	var d Data
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported tree format %q", format)
	}
	if err := ValidateData(&d); err != nil {
		return nil, err
	}
	return FromData(d)
}

// Encode writes the snapshot in the given format.
func Encode(w io.Writer, s *Snapshot, format Format) error {
	d := s.Data()
	if d.Persons == nil {
		d.Persons = []Person{}
	}
	if d.Relationships == nil {
		d.Relationships = []Relationship{}
	}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported tree format %q", format)
}

// Marshal returns the JSON encoding of s.
func Marshal(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a JSON encoded snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	return Decode(bytes.NewReader(data), FormatJSON)
}

// Read loads a snapshot from path, choosing the format by extension.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	s, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s, nil
}

// Write stores a snapshot at path, choosing the format by extension. The
// file is written to a temporary sibling first and renamed into place.
func Write(path string, s *Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s, FormatFromPath(path)); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tree-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ValidateData checks struct-level constraints: non-empty ids and valid
// info keys.
func ValidateData(d *Data) error {
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid tree")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid tree: %s", strings.Join(msgs, "; "))
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
