package cmdline

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"llamadeck/internal/common/fsutil"
)

// ModelSpec describes one runnable model: a backend executable, a model
// artifact and an ordered set of tuning flags. Values are immutable; the
// With*/Without* derivations return copies so a base spec can be shared
// across deployments and specialized per call site.
type ModelSpec struct {
	Name       string
	Executable string
	Artifact   string
	flags      []Flag
}

// NewModelSpec builds a spec. Existence of Executable and Artifact is checked
// at Render time, not here, so specs can be declared before artifacts land.
func NewModelSpec(name, executable, artifact string, flags ...Flag) ModelSpec {
	return ModelSpec{
		Name:       name,
		Executable: executable,
		Artifact:   artifact,
		flags:      append([]Flag(nil), flags...),
	}
}

// Flags returns a copy of the flag list in insertion order.
func (s ModelSpec) Flags() []Flag {
	return append([]Flag(nil), s.flags...)
}

// WithFlags returns a new spec with the given flags merged in. A flag whose
// name already exists is overridden in place (order preserved); new names
// append at the end.
func (s ModelSpec) WithFlags(flags ...Flag) ModelSpec {
	merged := append([]Flag(nil), s.flags...)
	for _, f := range flags {
		replaced := false
		for i := range merged {
			if merged[i].Name == f.Name {
				merged[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, f)
		}
	}
	out := s
	out.flags = merged
	return out
}

// WithoutFlags returns a new spec with the named flags removed. Unknown names
// are ignored.
func (s ModelSpec) WithoutFlags(names ...string) ModelSpec {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]Flag, 0, len(s.flags))
	for _, f := range s.flags {
		if !drop[f.Name] {
			kept = append(kept, f)
		}
	}
	out := s
	out.flags = kept
	return out
}

// Render produces the single shell-safe command line for this spec:
// quoted executable, "-m" plus quoted artifact path, then each flag in
// insertion order with underscores in its name turned into hyphens.
// Both Executable and Artifact must exist on disk; a missing entry fails
// with a validation error naming the offending path.
func (s ModelSpec) Render() (string, error) {
	if strings.TrimSpace(s.Name) == "" {
		return "", validationError{what: "model name", detail: "empty"}
	}
	if s.Executable == "" || !fsutil.PathExists(s.Executable) {
		return "", validationError{what: "executable", detail: s.Executable + " does not exist"}
	}
	if s.Artifact == "" || !fsutil.PathExists(s.Artifact) {
		return "", validationError{what: "model artifact", detail: s.Artifact + " does not exist"}
	}

	tokens := []string{shellquote.Join(s.Executable), "-m", shellquote.Join(s.Artifact)}
	for _, f := range s.flags {
		name := strings.ReplaceAll(f.Name, "_", "-")
		tokens = f.Value.render(name, tokens)
	}
	return strings.Join(tokens, " "), nil
}
