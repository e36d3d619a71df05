package shared

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeAlbumTypes(t *testing.T) {
	tc := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "basic normalization", filter: "single,album", want: []string{"album", "single"}},
		{name: "extra whitespace", filter: "  album ,  compilation ", want: []string{"album", "compilation"}},
		{name: "mixed case and repeats", filter: "ALBUM,Album,single", want: []string{"album", "single"}},
		{name: "blanks", filter: ",, ,", want: nil},
		{name: "empty", filter: "", want: nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAlbumTypes(tt.filter)
			if !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeAlbumTypes(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}

	t.Run("JoinAlbumTypes", func(t *testing.T) {
		if got := JoinAlbumTypes([]string{"Single", "album", "single"}); got != "album,single" {
			t.Errorf("JoinAlbumTypes() = %q, want album,single", got)
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	t.Run("empty defaults to info", func(t *testing.T) {
		ll, err := ParseLogLevel("")
		if err != nil || ll != log.InfoLevel {
			t.Errorf("ParseLogLevel(\"\") = %v, %v", ll, err)
		}
	})

	t.Run("debug", func(t *testing.T) {
		ll, err := ParseLogLevel(" DEBUG ")
		if err != nil || ll != log.DebugLevel {
			t.Errorf("ParseLogLevel(DEBUG) = %v, %v", ll, err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := ParseLogLevel("loud"); err == nil {
			t.Error("expected error for unknown level")
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "discwatch.log")

	logger, closer, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer closer.Close()

	logger.Info("hello", "artist", "abc")
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("GenerateID() should return unique ids, got %q and %q", a, b)
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"a":1}` {
		t.Errorf("expected compact output, got %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pretty) != "{\n  \"a\": 1\n}" {
		t.Errorf("expected indented output, got %s", pretty)
	}
}
