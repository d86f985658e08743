package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"1":       zerolog.InfoLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New("info", "json", &buf), "lingxing")
	l.Info().Int("page", 1).Msg("fetched")
	l.Debug().Msg("hidden")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "lingxing" || line["message"] != "fetched" || line["page"] != float64(1) {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestMask(t *testing.T) {
	if got := Mask("short"); got != "short" {
		t.Fatalf("Mask(short) = %q", got)
	}
	if got := Mask("abcdefghijklmnop"); got != "abcdef***mnop" {
		t.Fatalf("Mask = %q", got)
	}
}
