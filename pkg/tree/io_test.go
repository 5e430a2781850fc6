package tree

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/familygrid/pkg/errors"
)

const familyJSON = `{
  "version": 3,
  "persons": [
    {"id": "A", "info": {"@lastName": "Smith", "@firstName": "Anna"}},
    {"id": "B", "info": null},
    {"id": "C", "info": null}
  ],
  "relationships": [
    {"id": "r1", "parents": [null, null], "children": ["A"]},
    {"id": "r2", "parents": [null, null], "children": ["B"]},
    {"id": "r3", "parents": ["A", "B"], "children": ["C"]}
  ]
}`

func TestUnmarshal(t *testing.T) {
	s, err := Unmarshal([]byte(familyJSON))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.Version() != 3 {
		t.Errorf("Version() = %d, want 3", s.Version())
	}
	a, _ := s.Person("A")
	if keys := a.Info.Keys(); len(keys) != 2 || keys[0] != KeyLastName || keys[1] != KeyFirstName {
		t.Errorf("info key order = %v, want document order", keys)
	}
	rel, _ := s.Relationship("r3")
	if rel.Parents != [2]PersonID{"A", "B"} {
		t.Errorf("Parents = %v, want [A B]", rel.Parents)
	}
	root, _ := s.Relationship("r1")
	if root.Parents != [2]PersonID{NoPerson, NoPerson} {
		t.Errorf("null parents = %v, want empty slots", root.Parents)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"syntax", `{"persons": [`, errors.ErrCodeInvalidFormat},
		{"unknown field", `{"people": []}`, errors.ErrCodeInvalidFormat},
		{"empty person id", `{"persons":[{"id":""}],"relationships":[]}`, errors.ErrCodeInvalidInput},
		{"bad info key", `{"persons":[{"id":"A","info":{" x":"1"}}],"relationships":[{"id":"r","parents":[null,null],"children":["A"]}]}`, errors.ErrCodeInvalidInput},
		{"inconsistent", `{"persons":[{"id":"A"}],"relationships":[]}`, errors.ErrCodeInconsistentTree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			if !errors.Is(err, tt.code) {
				t.Errorf("Unmarshal() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := Unmarshal([]byte(familyJSON))
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"parents": [`) || !strings.Contains(string(data), "null") {
		t.Errorf("absent parents not encoded as null:\n%s", data)
	}
	if i, j := strings.Index(string(data), KeyLastName), strings.Index(string(data), KeyFirstName); i > j {
		t.Errorf("info key order not preserved:\n%s", data)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal(Marshal()): %v", err)
	}
	if Hash(back) != Hash(s) {
		t.Error("round trip changed the snapshot hash")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	s, err := Unmarshal([]byte(familyJSON))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, s, FormatYAML); err != nil {
		t.Fatalf("Encode yaml: %v", err)
	}
	back, err := Decode(&buf, FormatYAML)
	if err != nil {
		t.Fatalf("Decode yaml: %v\n%s", err, buf.String())
	}
	if Hash(back) != Hash(s) {
		t.Error("yaml round trip changed the snapshot hash")
	}
}

func TestReadWrite(t *testing.T) {
	s := New()
	s, err := s.InsertInfo(s.Persons()[0].ID, KeyFirstName, "Eve")
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"tree.json", "tree.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := Write(path, s); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := Read(path)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if got.Version() != s.Version() || Hash(got) != Hash(s) {
				t.Errorf("Read() = version %d hash %s, want version %d hash %s",
					got.Version(), Hash(got), s.Version(), Hash(s))
			}
		})
	}

	if _, err := Read(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Read(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestHashIgnoresVersion(t *testing.T) {
	s := New()
	pid := s.Persons()[0].ID
	s2, _ := s.InsertInfo(pid, "k", "v")
	if Hash(s) == Hash(s2) {
		t.Error("hash should change with content")
	}
	s3, err := s2.InsertInfo(pid, "k", "v")
	if err != nil {
		t.Fatal(err)
	}
	if s3.Version() == s2.Version() || Hash(s3) != Hash(s2) {
		t.Error("hash should not depend on the version")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"tree.json", FormatJSON},
		{"tree.yaml", FormatYAML},
		{"TREE.YML", FormatYAML},
		{"tree", FormatJSON},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
