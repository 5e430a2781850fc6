package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/tree"
)

const familyJSON = `{
  "version": 1,
  "persons": [
    {"id": "A", "info": {"@firstName": "Anna", "@lastName": "Smith"}},
    {"id": "B", "info": {"@firstName": "Bert"}},
    {"id": "C", "info": {"@firstName": "Cleo"}}
  ],
  "relationships": [
    {"id": "r1", "parents": [null, null], "children": ["A"]},
    {"id": "r2", "parents": [null, null], "children": ["B"]},
    {"id": "r3", "parents": ["A", "B"], "children": ["C"]}
  ]
}`

// isolate points every XDG directory at a fresh temp dir and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func writeFamily(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "family.json")
	if err := os.WriteFile(path, []byte(familyJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns what it wrote to
// its output stream.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestInitAndCheck(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "new.yaml")

	mustExecute(t, "init", path, "--first-name", "Anna", "--last-name", "Smith")
	s, err := tree.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || s.Persons()[0].Name() != "Anna Smith" {
		t.Errorf("persons = %+v, want Anna Smith", s.Persons())
	}

	if _, err := execute(t, "init", path); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("init over existing file: error = %v, want INVALID_PATH", err)
	}
	mustExecute(t, "init", path, "--force")
	mustExecute(t, "check", path, "--persons")
}

func TestCheckInvalidTree(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.json")
	broken := `{"version":1,"persons":[{"id":"A","info":null}],"relationships":[]}`
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "check", path); err == nil {
		t.Error("check accepted a person without a child relationship")
	}
}

func TestTreeSourceErrors(t *testing.T) {
	dir := isolate(t)
	path := writeFamily(t, dir)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no source", []string{"grid"}, errors.ErrCodeInvalidInput},
		{"both sources", []string{"grid", path, "--tree", "smiths"}, errors.ErrCodeInvalidInput},
		{"bad tree id", []string{"grid", "--tree", "a/b"}, errors.ErrCodeInvalidTreeID},
		{"missing file", []string{"grid", filepath.Join(dir, "none.json")}, errors.ErrCodeFileNotFound},
		{"missing stored tree", []string{"grid", "--tree", "none"}, errors.ErrCodeTreeNotFound},
		{"bad format", []string{"render", path, "-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"missing layers file", []string{"grid", path, "--layers", filepath.Join(dir, "none.json")}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLayersCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFamily(t, dir)

	out := mustExecute(t, "layers", path)
	if !strings.Contains(out, "Anna Smith") || !strings.Contains(out, "Cleo") {
		t.Errorf("layers output:\n%s", out)
	}

	var l layers.Layers
	if err := json.Unmarshal([]byte(mustExecute(t, "layers", path, "--json")), &l); err != nil {
		t.Fatal(err)
	}
	want := layers.Layers{{"A", "B"}, {"C"}}
	if !reflect.DeepEqual(l, want) {
		t.Errorf("layers = %v, want %v", l, want)
	}
}

func TestGridCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFamily(t, dir)

	out := mustExecute(t, "grid", path)
	for _, name := range []string{"Anna Smith", "Bert", "Cleo"} {
		if !strings.Contains(out, name) {
			t.Errorf("grid output missing %q:\n%s", name, out)
		}
	}
	if strings.Index(out, "Anna") > strings.Index(out, "Bert") {
		t.Errorf("Anna should come before Bert:\n%s", out)
	}

	out = mustExecute(t, "grid", path, "--no-labels", "--no-cache")
	if strings.Contains(out, "Anna") {
		t.Errorf("--no-labels still shows names:\n%s", out)
	}
}

func TestGridExplicitLayers(t *testing.T) {
	dir := isolate(t)
	path := writeFamily(t, dir)
	order := filepath.Join(dir, "order.json")

	mustExecute(t, "layers", path, "-o", order)
	if err := os.WriteFile(order, []byte(`[["B","A"],["C"]]`), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustExecute(t, "grid", path, "--layers", order)
	if strings.Index(out, "Bert") > strings.Index(out, "Anna") {
		t.Errorf("Bert should come before Anna:\n%s", out)
	}

	var g struct {
		Columns int `json:"columns"`
	}
	if err := json.Unmarshal([]byte(mustExecute(t, "grid", path, "--layers", order, "--json")), &g); err != nil {
		t.Fatal(err)
	}
	if g.Columns != 2 {
		t.Errorf("columns = %d, want 2", g.Columns)
	}

	if err := os.WriteFile(order, []byte(`[["A"],["C"]]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "grid", path, "--layers", order); !errors.Is(err, errors.ErrCodeInvalidLayers) {
		t.Errorf("incomplete layers: error = %v, want INVALID_LAYERS", err)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFamily(t, dir)

	mustExecute(t, "render", path, "-f", "text,json,dot")
	for _, name := range []string{"family.txt", "family.grid.json", "family.dot"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if s, err := tree.Read(path); err != nil || s.Len() != 3 {
		t.Errorf("render touched the input tree: %v", err)
	}

	mustExecute(t, "render", path, "-f", "svg", "-o", filepath.Join(dir, "out", "family.svg"), "--theme", "dark")
	svg, err := os.ReadFile(filepath.Join(dir, "out", "family.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("not an SVG: %.80s", svg)
	}
}

func TestPersonEdits(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "tree.json")
	mustExecute(t, "init", path)

	s, _ := tree.Read(path)
	child := s.Persons()[0].ID
	root := s.Relationships()[0].ID

	mustExecute(t, "person", "add-parent", "-f", path, string(root))
	s, _ = tree.Read(path)
	if s.Len() != 2 || s.Version() != 2 {
		t.Fatalf("after add-parent: %d persons, version %d", s.Len(), s.Version())
	}
	rel, _ := s.Relationship(root)
	parent := rel.ParentIDs()[0]

	mustExecute(t, "person", "info", "set", "-f", path, string(parent), "@firstName", "Dora")
	mustExecute(t, "person", "add-relationship", "-f", path, string(child))
	mustExecute(t, "person", "add-child", "-f", path, string(root))

	s, _ = tree.Read(path)
	if s.Len() != 3 || s.Version() != 5 {
		t.Errorf("after edits: %d persons, version %d", s.Len(), s.Version())
	}
	if out := mustExecute(t, "grid", path); !strings.Contains(out, "Dora") {
		t.Errorf("grid missing Dora:\n%s", out)
	}

	mustExecute(t, "person", "info", "rm", "-f", path, string(parent), "@firstName")
	if _, err := execute(t, "person", "info", "rm", "-f", path, string(parent), "@firstName"); !errors.Is(err, errors.ErrCodeNoInfo) {
		t.Errorf("second rm: error = %v, want NO_INFO", err)
	}
	if _, err := execute(t, "person", "add-child", "-f", path, "nope"); !errors.Is(err, errors.ErrCodeInvalidRelationshipID) {
		t.Errorf("unknown relationship: error = %v", err)
	}
	if _, err := execute(t, "person", "info", "set", "-f", path, string(parent), "", "x"); !errors.Is(err, errors.ErrCodeInvalidKey) {
		t.Errorf("empty key: error = %v", err)
	}
	if _, err := execute(t, "person", "remove", "-f", path, string(parent)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("removing a parent with children: error = %v, want INVALID_INPUT", err)
	}
	rel, _ = s.Relationship(root)
	sibling := rel.Children[len(rel.Children)-1]
	mustExecute(t, "person", "remove", "-f", path, string(sibling))
	if s, _ = tree.Read(path); s.Len() != 2 {
		t.Errorf("after remove: %d persons, want 2", s.Len())
	}
}

func TestStoredTree(t *testing.T) {
	isolate(t)

	mustExecute(t, "init", "--tree", "smiths", "--first-name", "Anna")
	if _, err := execute(t, "init", "--tree", "smiths"); !errors.Is(err, errors.ErrCodeVersionConflict) {
		t.Errorf("second init: error = %v, want VERSION_CONFLICT", err)
	}

	var l layers.Layers
	if err := json.Unmarshal([]byte(mustExecute(t, "layers", "--tree", "smiths", "--json")), &l); err != nil {
		t.Fatal(err)
	}
	if len(l) != 1 || len(l[0]) != 1 {
		t.Fatalf("layers = %v", l)
	}

	c := New(io.Discard, LogInfo)
	s, err := c.loadTree(context.Background(), treeSource{id: "smiths"})
	if err != nil {
		t.Fatal(err)
	}
	mustExecute(t, "person", "add-child", "--tree", "smiths", string(s.Relationships()[0].ID))

	if out := mustExecute(t, "grid", "--tree", "smiths"); !strings.Contains(out, "Anna") {
		t.Errorf("grid output:\n%s", out)
	}
	if s, err = c.loadTree(context.Background(), treeSource{id: "smiths"}); err != nil || s.Version() != 2 || s.Len() != 2 {
		t.Errorf("stored tree after add-child: %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	dir := isolate(t)
	path := writeFamily(t, dir)
	cfg := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(cfg, []byte("[render]\nformat = \"dot\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	mustExecute(t, "render", path, "--config", cfg)
	if _, err := os.Stat(filepath.Join(dir, "family.dot")); err != nil {
		t.Errorf("configured format not rendered: %v", err)
	}

	if err := os.WriteFile(cfg, []byte("[render]\nshape = \"round\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "check", path, "--config", cfg); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("unknown key: error = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output string
		src    treeSource
		want   string
	}{
		{"", treeSource{path: "trees/family.json"}, "trees/family"},
		{"", treeSource{id: "smiths"}, "smiths"},
		{"out/tree.svg", treeSource{path: "family.json"}, "out/tree"},
		{"out/tree.grid.json", treeSource{path: "family.json"}, "out/tree"},
		{"out/tree", treeSource{path: "family.json"}, "out/tree"},
		{"out/tree.v2", treeSource{path: "family.json"}, "out/tree.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.src); got != tt.want {
			t.Errorf("basePath(%q, %v) = %q, want %q", tt.output, tt.src, got, tt.want)
		}
	}
}

func TestCachePath(t *testing.T) {
	dir := isolate(t)
	out := mustExecute(t, "cache", "path")
	if want := filepath.Join(dir, "cache", "familygrid"); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheClear(t *testing.T) {
	dir := isolate(t)
	path := writeFamily(t, dir)

	mustExecute(t, "grid", path)
	entries, err := os.ReadDir(filepath.Join(dir, "cache", "familygrid"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("grid left no cache entries: %v", err)
	}

	mustExecute(t, "cache", "clear")
	var files int
	_ = filepath.WalkDir(filepath.Join(dir, "cache", "familygrid"), func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files++
		}
		return nil
	})
	if files != 0 {
		t.Errorf("%d cache files left after clear", files)
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		if out := mustExecute(t, "completion", shell); !strings.Contains(out, "familygrid") {
			t.Errorf("%s completion does not mention familygrid", shell)
		}
	}
}
