// Package env builds child-process environments and keeps sensitive values
// out of diagnostic logs.
package env

import (
	"os"
	"sort"
	"strings"
)

// redacted replaces the value of a sensitive variable in log output.
const redacted = "<redacted>"

// sensitivePatterns identify variables whose values must never be logged.
// Matching is case-insensitive substring matching on the key.
var sensitivePatterns = []string{
	"PASSWORD",
	"PASSWD",
	"SECRET",
	"_TOKEN",
	"TOKEN_",
	"API_KEY",
	"APIKEY",
	"PRIVATE_KEY",
	"_KEY",
	"KEY_",
	"CREDENTIAL",
	"_AUTH",
	"AUTH_",
	"AUTHORIZATION",
}

// Merge returns base with overrides applied, formatted as KEY=VALUE pairs
// suitable for exec.Cmd.Env. Keys in overrides replace matching keys in base;
// new keys are appended in sorted order so the result is deterministic.
// A nil base means the current process environment.
func Merge(base []string, overrides map[string]string) []string {
	if base == nil {
		base = os.Environ()
	}

	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := overrides[key]; ok {
			out = append(out, key+"="+v)
			seen[key] = true
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

// Redact returns a copy of envVars with the values of sensitive variables
// replaced, for use in log output.
func Redact(envVars map[string]string) map[string]string {
	out := make(map[string]string, len(envVars))
	for key, value := range envVars {
		if isSensitive(key) {
			out[key] = redacted
		} else {
			out[key] = value
		}
	}
	return out
}

// isSensitive checks if an environment variable key matches any of the sensitive patterns.
func isSensitive(key string) bool {
	upperKey := strings.ToUpper(key)

	for _, pattern := range sensitivePatterns {
		if strings.Contains(upperKey, pattern) {
			return true
		}
	}

	return false
}
