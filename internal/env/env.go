// Package env composes the environment handed to a supervised child.
package env

import (
	"os"
	"sort"
	"strings"
)

type Var map[string]string

// Parse splits "K=V" pairs into a Var. Entries without '=' or with an empty
// key are dropped; later entries win.
func Parse(kvs []string) Var {
	m := make(Var, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		m[k] = v
	}
	return m
}

// FromOS returns the current process environment.
func FromOS() Var { return Parse(os.Environ()) }

// Compose overlays overrides on base and expands ${VAR} references in the
// override values against the composed map. Base values are passed through
// untouched. The result is sorted by key.
func Compose(base Var, overrides map[string]string) []string {
	m := make(Var, len(base)+len(overrides))
	for k, v := range base {
		m[k] = v
	}
	for k, v := range overrides {
		if k != "" {
			m[k] = v
		}
	}
	raw := make(Var, len(m))
	for k, v := range m {
		raw[k] = v
	}
	for k, v := range overrides {
		if k != "" {
			m[k] = Expand(v, raw)
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+m[k])
	}
	return out
}

// Expand replaces ${VAR} with its value from vars. Unknown references and
// bare $VAR are left as written; there is no recursion.
func Expand(s string, vars Var) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		j := strings.IndexByte(s[i+2:], '}')
		if j < 0 {
			b.WriteString(s)
			return b.String()
		}
		name := s[i+2 : i+2+j]
		b.WriteString(s[:i])
		if v, ok := vars[name]; ok && name != "" {
			b.WriteString(v)
		} else {
			b.WriteString(s[i : i+3+j])
		}
		s = s[i+3+j:]
	}
}
