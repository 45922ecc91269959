package test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func ProjectRoot() string {
	_, b, _, _ := runtime.Caller(0)
	// Root folder of this project is 2 levels up from this file's directory
	return filepath.Join(filepath.Dir(b), "../..")
}

// Fixture reads a file from the repository's testdata directory.
func Fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ProjectRoot(), "testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}
