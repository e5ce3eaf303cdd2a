package featureflags

import (
	"os"
	"strings"
)

// Flags currently honored by the server.
const (
	// SeedDemoData populates an empty store with sample users and
	// tasks on startup.
	SeedDemoData = "seed_demo_data"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as TASKHUB_FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("TASKHUB_FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
