package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	procraceschema "github.com/Paintersrp/procrace/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const manifestSchemaURL = "race.v1.json"

var compileManifestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader(procraceschema.RaceV1Schema)); err != nil {
		return nil, fmt.Errorf("add %s: %w", manifestSchemaURL, err)
	}
	schema, err := compiler.Compile(manifestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", manifestSchemaURL, err)
	}
	return schema, nil
})

// SchemaIssue is a single schema violation at a manifest location such as
// participants[1](short).command.
type SchemaIssue struct {
	Location string
	Message  string
}

// SchemaError lists every schema violation found in a manifest.
type SchemaError struct {
	Issues []SchemaIssue
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema validation failed:")
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "\n- %s: %s", issue.Location, issue.Message)
	}
	return b.String()
}

func validateAgainstSchema(raw map[string]any) error {
	schema, err := compileManifestSchema()
	if err != nil {
		return fmt.Errorf("manifest schema: %w", err)
	}

	// Round-trip through JSON so YAML scalars take the shapes the validator
	// expects.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode manifest for schema validation: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("decode manifest for schema validation: %w", err)
	}

	err = schema.Validate(instance)
	if err == nil {
		return nil
	}
	var vErr *jsonschema.ValidationError
	if !errors.As(err, &vErr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return &SchemaError{Issues: collectIssues(vErr, raw)}
}

// collectIssues flattens the validator's error tree into its leaves, sorted by
// location and deduplicated.
func collectIssues(root *jsonschema.ValidationError, raw map[string]any) []SchemaIssue {
	var issues []SchemaIssue
	seen := make(map[SchemaIssue]struct{})
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				walk(cause)
			}
			return
		}
		issue := SchemaIssue{Location: describeLocation(e.InstanceLocation, raw), Message: e.Message}
		if _, dup := seen[issue]; dup {
			return
		}
		seen[issue] = struct{}{}
		issues = append(issues, issue)
	}
	walk(root)

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Location < issues[j].Location
	})
	return issues
}

// describeLocation renders a JSON pointer as a dotted path. Participant
// indexes are suffixed with the participant's name when it has one.
func describeLocation(pointer string, raw map[string]any) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "manifest"
	}

	var (
		b       strings.Builder
		current any = raw
	)
	for _, token := range strings.Split(pointer, "/") {
		token = strings.NewReplacer("~1", "/", "~0", "~").Replace(token)
		idx, err := strconv.Atoi(token)
		list, isList := current.([]any)
		if err != nil || !isList {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(token)
			current = child(current, token)
			continue
		}

		fmt.Fprintf(&b, "[%d]", idx)
		current = nil
		if idx >= 0 && idx < len(list) {
			current = list[idx]
		}
		if entry, ok := current.(map[string]any); ok {
			if name, ok := entry["name"].(string); ok && name != "" {
				fmt.Fprintf(&b, "(%s)", name)
			}
		}
	}
	return b.String()
}

func child(node any, key string) any {
	if m, ok := node.(map[string]any); ok {
		return m[key]
	}
	return nil
}
