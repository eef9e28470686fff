package config

import (
	"errors"
	"strings"
	"testing"
)

func TestDescribeLocation(t *testing.T) {
	raw := map[string]any{
		"participants": []any{
			map[string]any{"name": "long", "command": "./a"},
			map[string]any{"command": "./b"},
		},
		"env": map[string]any{"a/b": "x"},
	}
	tests := []struct {
		pointer string
		want    string
	}{
		{pointer: "", want: "manifest"},
		{pointer: "/", want: "manifest"},
		{pointer: "/poller/interval", want: "poller.interval"},
		{pointer: "/participants/0", want: "participants[0](long)"},
		{pointer: "/participants/0/command", want: "participants[0](long).command"},
		{pointer: "/participants/1", want: "participants[1]"},
		{pointer: "/participants/7", want: "participants[7]"},
		{pointer: "/env/a~1b", want: "env.a/b"},
	}
	for _, tt := range tests {
		if got := describeLocation(tt.pointer, raw); got != tt.want {
			t.Fatalf("describeLocation(%q) = %q, want %q", tt.pointer, got, tt.want)
		}
	}
}

func TestValidateAgainstSchemaCollectsEveryIssue(t *testing.T) {
	raw := map[string]any{
		"poller": map[string]any{"interval": "soon"},
		"participants": []any{
			map[string]any{"name": "short"},
		},
	}
	err := validateAgainstSchema(raw)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}

	locations := make([]string, 0, len(schemaErr.Issues))
	for _, issue := range schemaErr.Issues {
		locations = append(locations, issue.Location)
	}
	joined := strings.Join(locations, " ")
	if !strings.Contains(joined, "participants[0](short)") || !strings.Contains(joined, "poller.interval") {
		t.Fatalf("unexpected issue locations %v", locations)
	}
	if !strings.HasPrefix(err.Error(), "schema validation failed:\n- ") {
		t.Fatalf("unexpected rendering %q", err.Error())
	}
}

func TestValidateAgainstSchemaAcceptsMinimalManifest(t *testing.T) {
	raw := map[string]any{
		"participants": []any{
			map[string]any{"name": "only", "command": "./only.sh"},
		},
	}
	if err := validateAgainstSchema(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
