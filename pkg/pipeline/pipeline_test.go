package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/familygrid/pkg/cache"
	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/store"
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

func writeFamily(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "family.json")
	if err := os.WriteFile(path, []byte(familyJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"text", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "text"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateTheme(t *testing.T) {
	tests := []struct {
		theme   string
		wantErr bool
	}{
		{"light", false},
		{"dark", false},
		{"sepia", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateTheme(tt.theme)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTheme(%q) error = %v, wantErr %v", tt.theme, err, tt.wantErr)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"text"}},
		{"  ", []string{"text"}},
		{"svg", []string{"svg"}},
		{"svg, png,,text ", []string{"svg", "png", "text"}},
	}
	for _, tt := range tests {
		if got := ParseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Path: "family.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if !reflect.DeepEqual(opts.Formats, []string{FormatText}) {
		t.Errorf("Formats = %v, want [text]", opts.Formats)
	}
	if opts.CellWidth != DefaultCellWidth {
		t.Errorf("CellWidth = %d, want %d", opts.CellWidth, DefaultCellWidth)
	}
	if opts.CellSize != DefaultCellSize {
		t.Errorf("CellSize = %g, want %g", opts.CellSize, DefaultCellSize)
	}
	if opts.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want %q", opts.Theme, DefaultTheme)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}
}

func TestOptionsValidateForLoad(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"path", Options{Path: "family.json"}, ""},
		{"tree id", Options{TreeID: "smiths"}, ""},
		{"neither", Options{}, errors.ErrCodeInvalidInput},
		{"both", Options{Path: "family.json", TreeID: "smiths"}, errors.ErrCodeInvalidInput},
		{"bad tree id", Options{TreeID: "../etc"}, errors.ErrCodeInvalidTreeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateForLoad() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateForLoad() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"narrow cells", Options{CellWidth: 2}, true},
		{"negative size", Options{CellSize: -1}, true},
		{"bad theme", Options{Theme: "sepia"}, true},
		{"bad format", Options{Formats: []string{"gif"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateForRender(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateForRender() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Path: "family.json", Formats: []string{"svg"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, opts) {
		t.Errorf("second call changed options: %+v -> %+v", first, opts)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	base := opts.ArtifactKeyOpts(FormatSVG)
	dark := opts
	dark.Theme = "dark"
	if reflect.DeepEqual(base, dark.ArtifactKeyOpts(FormatSVG)) {
		t.Error("theme should change the svg key")
	}
	noLabels := opts
	noLabels.NoLabels = true
	if reflect.DeepEqual(base, noLabels.ArtifactKeyOpts(FormatSVG)) {
		t.Error("labels should change the svg key")
	}
	if !reflect.DeepEqual(opts.ArtifactKeyOpts(FormatDOT), dark.ArtifactKeyOpts(FormatDOT)) {
		t.Error("theme should not change the dot key")
	}
	colored := opts
	colored.Color = true
	if reflect.DeepEqual(opts.ArtifactKeyOpts(FormatText), colored.ArtifactKeyOpts(FormatText)) {
		t.Error("color should change the text key")
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(ctx, Options{
		Path:    writeFamily(t),
		Formats: []string{FormatText, FormatSVG, FormatDOT, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.PersonCount != 3 || result.Stats.RelationshipCount != 3 {
		t.Errorf("Stats = %+v, want 3 persons and 3 relationships", result.Stats)
	}
	want := layers.Layers{{"A", "B"}, {"C"}}
	if !reflect.DeepEqual(result.Layers, want) {
		t.Errorf("Layers = %v, want %v", result.Layers, want)
	}
	if result.Stats.Rows != 6 || result.Stats.Columns != 2 {
		t.Errorf("grid = %dx%d, want 6x2", result.Stats.Rows, result.Stats.Columns)
	}
	if len(result.Bands) != result.Grid.Height() {
		t.Errorf("len(Bands) = %d, want one per row", len(result.Bands))
	}
	if result.Stats.Connections == 0 {
		t.Error("Connections = 0, want the couple's bars counted")
	}
	if result.TreeHash != tree.Hash(result.Snapshot) {
		t.Error("TreeHash does not match the loaded snapshot")
	}

	if txt := string(result.Artifacts[FormatText]); !strings.Contains(txt, "Anna") || !strings.Contains(txt, "Cleo") {
		t.Errorf("text output misses names:\n%s", txt)
	}
	if !strings.HasPrefix(string(result.Artifacts[FormatSVG]), "<svg") {
		t.Errorf("svg output = %.40q", result.Artifacts[FormatSVG])
	}
	if !strings.Contains(string(result.Artifacts[FormatDOT]), `"rel:r3"`) {
		t.Errorf("dot output misses the couple:\n%s", result.Artifacts[FormatDOT])
	}
	var decoded map[string]any
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &decoded); err != nil {
		t.Errorf("json output does not parse: %v", err)
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	opts := Options{Path: writeFamily(t), Formats: []string{FormatText, FormatSVG}}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run CacheInfo = %+v, want all misses", first.CacheInfo)
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if second.CacheInfo != (CacheInfo{LayersHit: true, GridHit: true, RenderHit: true}) {
		t.Errorf("second run CacheInfo = %+v, want all hits", second.CacheInfo)
	}
	if !reflect.DeepEqual(first.Artifacts, second.Artifacts) {
		t.Error("cached artifacts differ from rendered ones")
	}
	if !reflect.DeepEqual(first.Bands, second.Bands) {
		t.Error("cached bands differ from built ones")
	}

	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo != (CacheInfo{}) {
		t.Errorf("refresh CacheInfo = %+v, want all misses", third.CacheInfo)
	}
}

func TestScopedRunner(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	opts := Options{Path: writeFamily(t), Formats: []string{FormatText}}
	if _, err := runner.Execute(ctx, opts); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	scoped := runner.Scoped("tree:smiths:")
	if scoped.Cache != runner.Cache {
		t.Error("scoped runner does not share the cache")
	}
	first, err := scoped.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("scoped Execute: %v", err)
	}
	if first.CacheInfo != (CacheInfo{}) {
		t.Errorf("scoped CacheInfo = %+v, want all misses", first.CacheInfo)
	}
	second, err := scoped.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("scoped Execute: %v", err)
	}
	if !second.CacheInfo.LayersHit || !second.CacheInfo.GridHit || !second.CacheInfo.RenderHit {
		t.Errorf("second scoped CacheInfo = %+v, want all hits", second.CacheInfo)
	}
}

func TestExecuteExplicitLayers(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	path := writeFamily(t)

	result, err := runner.Execute(ctx, Options{Path: path, Layers: layers.Layers{{"B", "A"}, {"C"}}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := result.Grid.Positions()["B"].Col; got != 0 {
		t.Errorf("B column = %d, want 0", got)
	}

	_, err = runner.Execute(ctx, Options{Path: path, Layers: layers.Layers{{"A"}, {"C"}}})
	if !errors.Is(err, errors.ErrCodeInvalidLayers) {
		t.Errorf("missing person error = %v, want INVALID_LAYERS", err)
	}
}

func TestExecuteFromStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s, err := tree.Unmarshal([]byte(familyJSON))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, "smiths", s, 0); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(nil, nil, nil)
	if _, err := runner.Execute(ctx, Options{TreeID: "smiths"}); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Execute without store error = %v, want CONFIGURATION_ERROR", err)
	}

	runner.Store = st
	defer runner.Close()
	result, err := runner.Execute(ctx, Options{TreeID: "smiths"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.PersonCount != 3 {
		t.Errorf("PersonCount = %d, want 3", result.Stats.PersonCount)
	}

	_, err = runner.Execute(ctx, Options{TreeID: "joneses"})
	if !errors.Is(err, errors.ErrCodeTreeNotFound) {
		t.Errorf("missing tree error = %v, want TREE_NOT_FOUND", err)
	}
}

func TestExecuteMissingFile(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{Path: filepath.Join(t.TempDir(), "absent.json")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Execute() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRenderNoLabels(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(ctx, Options{Path: writeFamily(t), NoLabels: true})
	if err != nil {
		t.Fatal(err)
	}
	if txt := string(result.Artifacts[FormatText]); strings.Contains(txt, "Anna") {
		t.Errorf("NoLabels output shows names:\n%s", txt)
	}
}
