// Package registry holds the allow-list of selectable model identifiers and
// implements model selection against it.
package registry

import (
	"fmt"
	"strings"

	"promptd/pkg/types"
)

// Registry is an ordered, immutable allow-list with a designated default.
type Registry struct {
	models []types.Model
	index  map[string]int
	def    string
}

// New builds a registry from ids in display order. Blank and duplicate ids
// are dropped (first occurrence wins). def must be a member.
func New(ids []string, def string) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := r.index[id]; dup {
			continue
		}
		r.index[id] = len(r.models)
		r.models = append(r.models, types.Model{ID: id, Name: id})
	}
	if len(r.models) == 0 {
		return nil, fmt.Errorf("registry: no model identifiers")
	}
	i, ok := r.index[def]
	if !ok {
		return nil, fmt.Errorf("registry: default model %q is not a candidate", def)
	}
	r.def = def
	r.models[i].Default = true
	return r, nil
}

// Candidates returns the identifiers in configured order.
func (r *Registry) Candidates() []string {
	out := make([]string, len(r.models))
	for i, m := range r.models {
		out[i] = m.ID
	}
	return out
}

// Models returns a copy of the entries, including any attached file info.
func (r *Registry) Models() []types.Model {
	out := make([]types.Model, len(r.models))
	copy(out, r.models)
	return out
}

// Default returns the default identifier.
func (r *Registry) Default() string { return r.def }

// Has reports whether id is in the allow-list.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (types.Model, bool) {
	i, ok := r.index[id]
	if !ok {
		return types.Model{}, false
	}
	return r.models[i], true
}

// Select returns choice when it is a candidate and the default otherwise, so
// the result is always a member of Candidates.
func (r *Registry) Select(choice string) string {
	if r.Has(strings.TrimSpace(choice)) {
		return strings.TrimSpace(choice)
	}
	return r.def
}

// Attach matches discovered local files to identifiers and records their path
// and size. A file matches an id when the filename equals the id or the file
// stem equals the last path segment of the id ("gpt2.Q4_K_M.gguf" ~ "gpt2").
// With appendUnknown, unmatched files become new candidates keyed by filename.
func (r *Registry) Attach(files []types.Model, appendUnknown bool) *Registry {
	out := &Registry{
		models: r.Models(),
		index:  make(map[string]int, len(r.index)+len(files)),
		def:    r.def,
	}
	for k, v := range r.index {
		out.index[k] = v
	}
	for _, f := range files {
		matched := false
		for i := range out.models {
			m := &out.models[i]
			if m.Path != "" {
				continue
			}
			if m.ID == f.ID || idStem(m.ID) == fileStem(f.ID) {
				m.Path, m.SizeBytes = f.Path, f.SizeBytes
				matched = true
				break
			}
		}
		if matched || !appendUnknown {
			continue
		}
		if _, dup := out.index[f.ID]; dup {
			continue
		}
		out.index[f.ID] = len(out.models)
		f.Default = false
		out.models = append(out.models, f)
	}
	return out
}
