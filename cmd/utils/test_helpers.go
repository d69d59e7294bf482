package utils

import (
	"os"
	"strings"
	"testing"
)

// ClearTestEnvironment blanks every env var for the duration of the test. It keeps
// config option tests independent from the host environment.
func ClearTestEnvironment(t *testing.T) {
	t.Helper()

	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if key != "" {
			t.Setenv(key, "")
		}
	}
}
