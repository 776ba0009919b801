package config

import (
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	// Unset all HBLINK vars to ensure clean test environment
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, envPrefix) {
			kv := strings.SplitN(e, "=", 2)
			if err := os.Unsetenv(kv[0]); err != nil {
				panic("failed to unset env: " + err.Error())
			}
		}
	}

	os.Exit(m.Run())
}
