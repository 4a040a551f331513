package keys

import "testing"

func TestTOMLTableAndDottedKeysAreEquivalent(t *testing.T) {
	cases := []string{
		"[watcher]\nqueue-limit = 64\n",
		"watcher.queue-limit = 64\n",
	}
	for _, input := range cases {
		store, err := DecodeTOML([]byte(input))
		if err != nil {
			t.Fatalf("decode toml: %v", err)
		}
		value, ok := store.GetInt("watcher.queue-limit")
		if !ok || value != 64 {
			t.Fatalf("expected 64, got %d (ok=%v)", value, ok)
		}
	}
}

func TestYAMLMatchesTOML(t *testing.T) {
	store, err := DecodeYAML([]byte("watcher:\n  queue_limit: 64\nlog:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if value, ok := store.GetInt("watcher.queue-limit"); !ok || value != 64 {
		t.Fatalf("expected 64, got %d (ok=%v)", value, ok)
	}
	if value, ok := store.GetString("log.level"); !ok || value != "debug" {
		t.Fatalf("expected debug, got %q (ok=%v)", value, ok)
	}
}

func TestNormalizationHandlesUnderscoresAndCase(t *testing.T) {
	store, err := DecodeTOML([]byte("[Archive]\nMAX_ENTRY_BYTES = 123\n"))
	if err != nil {
		t.Fatalf("decode toml: %v", err)
	}
	if value, ok := store.GetInt("archive.max-entry-bytes"); !ok || value != 123 {
		t.Fatalf("expected 123, got %d (ok=%v)", value, ok)
	}
}

func TestGetWrongTypeReportsMissing(t *testing.T) {
	store := FromRaw(map[string]any{"log": map[string]any{"level": 3}})
	if _, ok := store.GetString("log.level"); ok {
		t.Fatal("expected integer value to fail string lookup")
	}
	if _, ok := store.GetInt("log.missing"); ok {
		t.Fatal("expected missing key to fail")
	}
}
