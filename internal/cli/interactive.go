package cli

import "os"

// IsNonInteractive reports whether terminal-only output should be skipped.
func IsNonInteractive() bool {
	if nonInteractive {
		return true
	}
	if _, ok := os.LookupEnv("ILLO_NON_INTERACTIVE"); ok {
		return true
	}
	return !hasTTY()
}

// IsInteractive reports whether the session is attached to a terminal.
func IsInteractive() bool {
	return !IsNonInteractive()
}
