package cliutil

import "testing"

func TestRedactEnv(t *testing.T) {
	in := map[string]string{
		"API_KEY":     "abc",
		"DB_PASSWORD": "hunter2",
		"authToken":   "t0k3n",
		"MODE":        "fast",
		"EMPTY_TOKEN": "",
	}
	got := RedactEnv(in)

	for _, key := range []string{"API_KEY", "DB_PASSWORD", "authToken"} {
		if got[key] != redactedPlaceholder {
			t.Fatalf("expected %s to be redacted, got %q", key, got[key])
		}
	}
	if got["MODE"] != "fast" {
		t.Fatalf("non-secret value changed: %q", got["MODE"])
	}
	if got["EMPTY_TOKEN"] != "" {
		t.Fatalf("empty value should stay empty, got %q", got["EMPTY_TOKEN"])
	}
	if in["API_KEY"] != "abc" {
		t.Fatalf("input map was mutated")
	}
	if RedactEnv(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}
