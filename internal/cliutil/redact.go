package cliutil

import (
	"regexp"
)

const redactedPlaceholder = "[redacted]"

var secretNamePattern = regexp.MustCompile(`(?i)(PASSWORD|PASSWD|SECRET|TOKEN|API_?KEY|ACCESS_KEY|PRIVATE_KEY|CREDENTIALS?)`)

// IsSecretName reports whether an environment variable name looks like it holds
// a credential.
func IsSecretName(name string) bool {
	return secretNamePattern.MatchString(name)
}

// RedactEnv returns a copy of env with the values of secret-looking variables
// replaced by a placeholder, for user-facing output.
func RedactEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if v != "" && IsSecretName(k) {
			v = redactedPlaceholder
		}
		out[k] = v
	}
	return out
}
