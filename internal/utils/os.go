package utils

import (
	"os"
	"path/filepath"
)

const defaultName = "camel-arbiter"

// ExecutableName returns the base name the binary was started as
func ExecutableName() string {
	executable, err := os.Executable()
	if err != nil {
		return defaultName
	}
	return filepath.Base(executable)
}
