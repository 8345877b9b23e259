package util

import (
	"os"
	"strings"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)
		if len(pair) != 2 {
			continue
		}

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// EnvironmentValue returns the named variable from env or fallback when it is unset or blank
func EnvironmentValue(env map[string]string, name string, fallback string) string {
	if value := strings.TrimSpace(env[name]); value != "" {
		return value
	}

	return fallback
}
