// Package resolve turns finder selections into filesystem paths.
package resolve

import (
	"os"
	"path/filepath"
)

// Path joins arg onto cwd unless arg is already absolute and reports whether
// the result exists. A missing path is not an error: selections go stale when
// files move between listing and picking, and callers simply do nothing.
func Path(arg, cwd string) (string, bool) {
	if !filepath.IsAbs(arg) {
		arg = filepath.Join(cwd, arg)
	}
	if _, err := os.Stat(arg); err != nil {
		return "", false
	}
	return arg, true
}
