package httpapi

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestConsoleLevel(t *testing.T) {
	cases := []struct {
		level    string
		explicit bool
		want     zerolog.Level
	}{
		{"info", false, zerolog.WarnLevel},
		{"", false, zerolog.WarnLevel},
		{"info", true, zerolog.InfoLevel},
		{"debug", false, zerolog.DebugLevel},
		{"ERROR", false, zerolog.ErrorLevel},
	}
	for _, tc := range cases {
		if got := consoleLevel(tc.level, tc.explicit); got != tc.want {
			t.Fatalf("consoleLevel(%q, %v) = %v, want %v", tc.level, tc.explicit, got, tc.want)
		}
	}
}

func TestNewLogger_TagsServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, zerolog.WarnLevel)

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}

	log.Warn().Msg("kept")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["service"] != serviceName || line["message"] != "kept" {
		t.Fatalf("unexpected log line %v", line)
	}
}
