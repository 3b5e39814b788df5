package swapcfg

import (
	"fmt"
	"sort"
	"time"
)

// Model is one entry in the supervisor's model registry: a display name plus
// the command line that starts its backend, and a handful of optional
// routing knobs understood by llama-swap.
//
// Only fields that are actually set make it into the serialized document;
// the supervisor treats a present-but-empty key differently from an absent
// one, so zero values must vanish rather than serialize as null.
type Model struct {
	Name          string
	Cmd           string
	Aliases       []string
	TTL           time.Duration
	CheckEndpoint string
	Env           map[string]string
	Unlisted      *bool
}

// Hidden returns an Unlisted value for models kept out of the supervisor's
// model listing. The field is tri-state in the document: absent, false, true.
func Hidden() *bool {
	v := true
	return &v
}

// doc renders the model as a plain map ready for YAML marshaling, with
// absent optional fields omitted entirely. TTL is emitted in whole seconds
// and env as a sorted KEY=VALUE list.
func (m Model) doc() map[string]any {
	d := map[string]any{
		"cmd": m.Cmd,
	}
	if m.Aliases != nil {
		d["aliases"] = m.Aliases
	}
	if m.TTL != 0 {
		d["ttl"] = int(m.TTL.Seconds())
	}
	if m.CheckEndpoint != "" {
		d["checkEndpoint"] = m.CheckEndpoint
	}
	if m.Env != nil {
		keys := make([]string, 0, len(m.Env))
		for k := range m.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		env := make([]string, 0, len(keys))
		for _, k := range keys {
			env = append(env, fmt.Sprintf("%s=%s", k, m.Env[k]))
		}
		d["env"] = env
	}
	if m.Unlisted != nil {
		d["unlisted"] = *m.Unlisted
	}
	return d
}
