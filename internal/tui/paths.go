package tui

import (
	"os"
	"path/filepath"
	"strings"
)

// resolvePath turns what the user typed into a locator. Relative paths are
// taken from workDir, "~/" expands to the home directory and file:// URIs pass
// through untouched.
func resolvePath(input, workDir string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if strings.HasPrefix(input, "file://") {
		return input
	}

	p := input
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(workDir, p)
	}
	return filepath.Clean(p)
}

// newFileTarget splits a typed save-as name that has no extension into its
// parent directory and file name. Such names become new files whose
// extension storage picks from the default MIME type.
func newFileTarget(input, workDir string) (parent, name string, ok bool) {
	p := resolvePath(input, workDir)
	if p == "" || strings.HasPrefix(p, "file://") || filepath.Ext(p) != "" {
		return "", "", false
	}
	return filepath.Dir(p), filepath.Base(p), true
}
