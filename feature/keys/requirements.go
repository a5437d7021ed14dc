package keys

import (
	"sort"
	"strings"

	"keymaster/core/utils"
)

// ManualProvenance marks keys forced by the operator.
const ManualProvenance = "MANUAL"

// Requirement is a key file together with the mods that require it.
type Requirement struct {
	// Name is the key file name as first seen.
	Name string `json:"name"`
	// Mods lists the requesting mods, or ManualProvenance.
	Mods []string `json:"mods"`
	// Source is the remote path the key is copied from. Empty means keystore.
	Source string `json:"source,omitempty"`
}

// String formats the requirement as "name (mod1,mod2)".
func (r Requirement) String() string {
	return r.Name + " (" + strings.Join(r.Mods, ",") + ")"
}

// Requirements is an insertion-ordered set of keys keyed by case-folded name.
type Requirements struct {
	order []string
	byKey map[string]*Requirement
}

// NewRequirements returns an empty set.
func NewRequirements() *Requirements {
	return &Requirements{byKey: make(map[string]*Requirement)}
}

// Add records that mod requires the key, merging provenance when the key is
// already present.
func (r *Requirements) Add(name, mod string) {
	r.add(name, mod, "")
}

// AddFrom records a key copied from a remote path. It reports false and
// changes nothing when the key is already present.
func (r *Requirements) AddFrom(name, mod, source string) bool {
	if r.Has(name) {
		return false
	}
	r.add(name, mod, source)
	return true
}

func (r *Requirements) add(name, mod, source string) {
	name = strings.TrimSpace(name)
	key := utils.FoldKey(name)
	if key == "" {
		return
	}
	req, ok := r.byKey[key]
	if !ok {
		req = &Requirement{Name: name, Source: source}
		r.byKey[key] = req
		r.order = append(r.order, key)
	}
	if !utils.ContainsFold(req.Mods, mod) {
		req.Mods = append(req.Mods, mod)
	}
}

// Remove deletes a key and reports whether it was present.
func (r *Requirements) Remove(name string) bool {
	key := utils.FoldKey(name)
	if _, ok := r.byKey[key]; !ok {
		return false
	}
	delete(r.byKey, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether the key is present.
func (r *Requirements) Has(name string) bool {
	_, ok := r.byKey[utils.FoldKey(name)]
	return ok
}

// Get returns the requirement for a key.
func (r *Requirements) Get(name string) (Requirement, bool) {
	req, ok := r.byKey[utils.FoldKey(name)]
	if !ok {
		return Requirement{}, false
	}
	return *req, true
}

// Len returns the number of keys.
func (r *Requirements) Len() int {
	return len(r.order)
}

// List returns the requirements in insertion order.
func (r *Requirements) List() []Requirement {
	out := make([]Requirement, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, *r.byKey[k])
	}
	return out
}

// Sorted returns the requirements ordered by case-folded name.
func (r *Requirements) Sorted() []Requirement {
	out := r.List()
	sort.Slice(out, func(i, j int) bool {
		return utils.FoldKey(out[i].Name) < utils.FoldKey(out[j].Name)
	})
	return out
}

// Names returns the key names in insertion order.
func (r *Requirements) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k].Name)
	}
	return out
}
