package cli

import (
	"strings"
	"testing"
)

func TestKeyValueLine(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"Persons", "3"},
		{"Relationships", "1"},
		{"Generations", "2"},
		{"@dateOfBirthPlace", "Hamburg"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			line := keyValueLine(tt.key, tt.value)
			if strings.Contains(line, "\n") {
				t.Fatalf("keyValueLine(%q) wrapped: %q", tt.key, line)
			}
			if !strings.Contains(line, tt.key) || !strings.Contains(line, tt.value) {
				t.Errorf("keyValueLine(%q, %q) = %q", tt.key, tt.value, line)
			}
		})
	}
}

func TestKeyValueLineAligns(t *testing.T) {
	short := keyValueLine("Persons", "3")
	long := keyValueLine("Relationships", "1")
	if strings.Index(short, "3") != strings.Index(long, "1") {
		t.Errorf("values not aligned:\n%q\n%q", short, long)
	}
}

func TestStatsLine(t *testing.T) {
	tests := []struct {
		name          string
		persons, rels int
		cached        bool
		want          []string
	}{
		{"fresh", 3, 2, false, []string{"3 persons", "2 relationships", "fresh"}},
		{"cached single", 1, 1, true, []string{"1 person", "1 relationship", "cached"}},
		{"empty", 0, 0, false, []string{"fresh"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := statsLine(tt.persons, tt.rels, tt.cached)
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("statsLine = %q, missing %q", line, w)
				}
			}
		})
	}
}
