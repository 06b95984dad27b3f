// Package toolchain checks that the binaries and SDK directories named by a
// resolved configuration exist on the host.
package toolchain

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
)

const exeSuffix = ".exe"

// ErrMissing is returned by Verify when any check fails.
var ErrMissing = errors.New("toolchain incomplete")

// Kind distinguishes what a check inspected.
type Kind string

const (
	KindTool Kind = "tool"
	KindDir  Kind = "dir"
)

// Check is the outcome of inspecting one path.
type Check struct {
	Name  string
	Kind  Kind
	Path  string
	Found bool
}

// Tool inspects every word of a tool command line. Commands prefixed with a
// wrapper such as ccache yield one check per binary.
func Tool(name, command, searchPath string) ([]Check, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: parse %q", name, command)
	}
	if len(words) == 0 {
		return []Check{{Name: name, Kind: KindTool}}, nil
	}

	checks := make([]Check, len(words))
	for i, w := range words {
		path, found := findBinary(w, searchPath)
		checks[i] = Check{Name: name, Kind: KindTool, Path: path, Found: found}
	}
	return checks, nil
}

// Dir inspects a directory such as an SDK root.
func Dir(name, path string) Check {
	info, err := os.Stat(path)
	return Check{Name: name, Kind: KindDir, Path: path, Found: err == nil && info.IsDir()}
}

// Verify returns ErrMissing listing the failed checks, or nil.
func Verify(checks []Check) error {
	var missing []string
	for _, c := range checks {
		if !c.Found {
			missing = append(missing, c.Name+": "+c.Path)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	err := errors.Wrapf(ErrMissing, "%d missing", len(missing))
	for _, m := range missing {
		err = errors.WithDetail(err, m)
	}
	return errors.WithHint(err, "set IPHONEPATH and IPHONESDK to your Xcode or osxcross install")
}

// findBinary resolves bare names against searchPath and checks explicit
// paths directly.
func findBinary(name, searchPath string) (string, bool) {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return name, hasBinary(name)
	}
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, name)
		if hasBinary(path) {
			return path, true
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	return name, false
}

func hasBinary(path string) bool {
	if runtime.GOOS == "windows" && filepath.Ext(path) == "" {
		path += exeSuffix
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
