package cmdline

import (
	"path/filepath"
	"strconv"

	"github.com/kballard/go-shellquote"
)

// flagKind discriminates the value variants a flag can carry. Modeling this
// as a closed set keeps the four rendering cases exhaustive instead of
// switching on an untyped any.
type flagKind int

const (
	kindSwitch flagKind = iota
	kindBool
	kindString
	kindInt
	kindFloat
	kindPath
)

// FlagValue is a tagged variant: a flag is either a bare switch, a boolean,
// a scalar (string/int/float), or a filesystem path. Construct values with
// Switch, Bool, String, Int, Float or PathArg.
type FlagValue struct {
	kind flagKind
	b    bool
	s    string
	i    int
	f    float64
}

// Switch is a flag with no value; it always renders as --name.
func Switch() FlagValue { return FlagValue{kind: kindSwitch} }

// Bool renders as --name when true and disappears entirely when false.
func Bool(v bool) FlagValue { return FlagValue{kind: kindBool, b: v} }

// String is a scalar flag value. Scalars are emitted verbatim, without shell
// quoting: callers pass trusted constants (including literal placeholders
// like ${PORT} that the supervisor substitutes at spawn time, which quoting
// would defeat). Do not route untrusted input through scalar flags.
func String(v string) FlagValue { return FlagValue{kind: kindString, s: v} }

// Int is a scalar flag value.
func Int(v int) FlagValue { return FlagValue{kind: kindInt, i: v} }

// Float is a scalar flag value.
func Float(v float64) FlagValue { return FlagValue{kind: kindFloat, f: v} }

// PathArg is a path-valued flag; it renders absolute and shell-quoted.
func PathArg(p string) FlagValue { return FlagValue{kind: kindPath, s: p} }

// render appends the flag's token(s) for --name to out and returns the
// extended slice. A false boolean contributes nothing.
func (v FlagValue) render(name string, out []string) []string {
	opt := "--" + name
	switch v.kind {
	case kindSwitch:
		out = append(out, opt)
	case kindBool:
		if v.b {
			out = append(out, opt)
		}
	case kindString:
		out = append(out, opt, v.s)
	case kindInt:
		out = append(out, opt, strconv.Itoa(v.i))
	case kindFloat:
		out = append(out, opt, strconv.FormatFloat(v.f, 'g', -1, 64))
	case kindPath:
		abs, err := filepath.Abs(v.s)
		if err != nil {
			abs = v.s
		}
		out = append(out, opt, shellquote.Join(abs))
	}
	return out
}

// Flag pairs a logical name with its value. Names use underscores between
// words (n_gpu_layers); rendering converts them to CLI-style hyphens.
type Flag struct {
	Name  string
	Value FlagValue
}
