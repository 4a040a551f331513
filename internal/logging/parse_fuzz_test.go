package logging

import "testing"

func FuzzParseLevel(f *testing.F) {
	seeds := []string{"info", "warn", "warning", "error", "debug", "trace", "", "???", "INFO"}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		level, ok := ParseLevel(raw)
		if ok && normalizeLevel(level) != level {
			t.Fatalf("parsed unknown level %q from %q", level, raw)
		}
	})
}
