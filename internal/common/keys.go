// -----------------------------------------------------------------------
// API key resolution - environment -> .env file -> config fallback
// -----------------------------------------------------------------------

package common

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// ErrKeyNotFound is returned when no credential could be resolved from any
// source. Callers treat this as the degraded "no backend configured" mode.
var ErrKeyNotFound = errors.New("api key not found")

// Environment variable names checked per provider, in priority order.
var (
	GeminiKeyEnvVars = []string{"CUSTOS_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}
	ClaudeKeyEnvVars = []string{"CUSTOS_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"}
)

// dotEnvFile is the fallback secrets file read from the working directory.
var dotEnvFile = ".env"

// ResolveAPIKey resolves a credential with priority: environment variables
// -> .env file in the working directory -> config file value.
func ResolveAPIKey(envVars []string, configFallback string) (string, error) {
	for _, name := range envVars {
		if value := os.Getenv(name); value != "" {
			return value, nil
		}
	}

	if value := resolveFromDotEnv(dotEnvFile, envVars); value != "" {
		return value, nil
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", ErrKeyNotFound
}

// resolveFromDotEnv scans a KEY=value file for the first matching key.
// Missing or unreadable files resolve to "" - the .env file is optional.
func resolveFromDotEnv(path string, keys []string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(name)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}

	for _, key := range keys {
		if value := values[key]; value != "" {
			return value
		}
	}
	return ""
}
