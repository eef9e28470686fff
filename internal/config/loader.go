package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a race manifest from the provided path.
func Load(path string) (*Manifest, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: manifest is empty", absPath)
	}
	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var doc Manifest
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	doc.Source = absPath

	baseDir := filepath.Dir(absPath)
	doc.Workdir = resolveWorkdir(baseDir, os.ExpandEnv(doc.Workdir))

	for i := range doc.Participants {
		doc.Participants[i].Name = strings.TrimSpace(doc.Participants[i].Name)
		doc.Participants[i].Command = os.ExpandEnv(strings.TrimSpace(doc.Participants[i].Command))
	}

	env, err := mergeEnv(&doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	doc.Env = env

	doc.ApplyDefaults()
	if err := ApplyEnvOverrides(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

// LoadOrDefault loads path, falling back to the built-in manifest when the file
// does not exist. Relative commands of the default manifest resolve against the
// current directory.
func LoadOrDefault(path string) (*Manifest, error) {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return Load(path)
	}

	doc := Default()
	wd, wdErr := os.Getwd()
	if wdErr != nil {
		return nil, fmt.Errorf("resolve working directory: %w", wdErr)
	}
	doc.Workdir = wd
	if err := ApplyEnvOverrides(doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func mergeEnv(doc *Manifest) (map[string]string, error) {
	var fileEnv map[string]string
	if doc.EnvFromFile != "" {
		expanded := os.ExpandEnv(doc.EnvFromFile)
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Clean(filepath.Join(doc.Workdir, expanded))
		}
		doc.EnvFromFile = expanded

		var err error
		fileEnv, err = loadEnvFile(expanded)
		if err != nil {
			return nil, fmt.Errorf("envFromFile: %w", err)
		}
	}

	if len(fileEnv) == 0 && len(doc.Env) == 0 {
		return nil, nil
	}
	merged := make(map[string]string, len(fileEnv)+len(doc.Env))
	for k, v := range fileEnv {
		merged[k] = v
	}
	for k, v := range doc.Env {
		merged[k] = os.ExpandEnv(v)
	}
	return merged, nil
}

func resolveWorkdir(base, workdir string) string {
	if workdir == "" {
		return base
	}
	if filepath.IsAbs(workdir) {
		return filepath.Clean(workdir)
	}
	return filepath.Clean(filepath.Join(base, workdir))
}

func loadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	values := make(map[string]string)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if strings.HasPrefix(raw, "export ") {
			raw = strings.TrimSpace(raw[len("export "):])
		}
		sep := strings.IndexRune(raw, '=')
		if sep <= 0 {
			return nil, fmt.Errorf("load env file %q: invalid line %d", path, lineNo)
		}
		key := strings.TrimSpace(raw[:sep])
		value := strings.TrimSpace(raw[sep+1:])
		if strings.HasPrefix(value, "\"") {
			unquoted, err := strconv.Unquote(value)
			if err != nil {
				return nil, fmt.Errorf("load env file %q: parse value for %s on line %d: %w", path, key, lineNo, err)
			}
			value = unquoted
		} else if strings.HasPrefix(value, "'") {
			if len(value) < 2 || value[len(value)-1] != '\'' {
				return nil, fmt.Errorf("load env file %q: unmatched quote on line %d", path, lineNo)
			}
			value = value[1 : len(value)-1]
		} else if comment := strings.IndexRune(value, '#'); comment >= 0 {
			value = strings.TrimSpace(value[:comment])
		}
		values[key] = os.ExpandEnv(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	return values, nil
}
