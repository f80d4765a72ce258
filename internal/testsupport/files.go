package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MkDirs creates each directory with parents.
func MkDirs(t testing.TB, paths ...string) {
	t.Helper()

	for _, path := range paths {
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
	}
}

// TouchFiles creates each path as an empty file, with parents.
func TouchFiles(t testing.TB, paths ...string) {
	t.Helper()

	for _, path := range paths {
		WriteFile(t, path, "")
	}
}

// JobTree builds a job directory under root with asset and shot entity
// directories laid out per the default templates, and returns the job path.
func JobTree(t testing.TB, root, job string, assets, shots []string) string {
	t.Helper()

	jobPath := filepath.Join(root, job)
	MkDirs(t, jobPath)
	for _, asset := range assets {
		// assets are given as "type/name"
		MkDirs(t, filepath.Join(jobPath, "assets", asset))
	}
	for _, shot := range shots {
		// shots are given as "sequence/shot"
		MkDirs(t, filepath.Join(jobPath, "shots", shot))
	}
	return jobPath
}
