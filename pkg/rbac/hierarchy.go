package rbac

import (
	"cmp"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// walkAncestors calls visit for every strict ancestor of start, nearest
// first, until visit returns false. A visited set ends the walk on cyclic
// data.
func walkAncestors(parentOf func(uuid.UUID) (uuid.UUID, bool), start uuid.UUID, visit func(uuid.UUID) bool) {
	visited := map[uuid.UUID]struct{}{start: {}}
	current := start
	for {
		parent, ok := parentOf(current)
		if !ok {
			return
		}
		if _, seen := visited[parent]; seen {
			return
		}
		visited[parent] = struct{}{}
		if !visit(parent) {
			return
		}
		current = parent
	}
}

// wouldCreateCycle reports whether making parentID the parent of roleID
// closes a loop, i.e. roleID is already on parentID's ancestor chain.
func wouldCreateCycle(roles []Role, roleID, parentID uuid.UUID) bool {
	if roleID == parentID {
		return true
	}
	parents := parentMap(roles)
	found := false
	walkAncestors(lookup(parents), parentID, func(id uuid.UUID) bool {
		found = id == roleID
		return !found
	})
	return found
}

func parentMap(roles []Role) map[uuid.UUID]uuid.UUID {
	parents := make(map[uuid.UUID]uuid.UUID, len(roles))
	for _, r := range roles {
		if r.ParentID != nil {
			parents[r.ID] = *r.ParentID
		}
	}
	return parents
}

func lookup(m map[uuid.UUID]uuid.UUID) func(uuid.UUID) (uuid.UUID, bool) {
	return func(id uuid.UUID) (uuid.UUID, bool) {
		v, ok := m[id]
		return v, ok
	}
}

// hierarchy is an immutable snapshot of the parent links plus a memo of
// ancestor chains computed from it.
type hierarchy struct {
	parents map[uuid.UUID]uuid.UUID
	names   map[uuid.UUID]string
	ids     map[string]uuid.UUID

	mu   sync.RWMutex
	memo map[uuid.UUID][]uuid.UUID
}

func newHierarchy(roles []Role) *hierarchy {
	h := &hierarchy{
		parents: parentMap(roles),
		names:   make(map[uuid.UUID]string, len(roles)),
		ids:     make(map[string]uuid.UUID, len(roles)),
		memo:    make(map[uuid.UUID][]uuid.UUID, len(roles)),
	}
	for _, r := range roles {
		h.names[r.ID] = r.Name
		h.ids[r.Name] = r.ID
	}
	return h
}

func (h *hierarchy) roleID(name string) (uuid.UUID, bool) {
	id, ok := h.ids[name]
	return id, ok
}

func (h *hierarchy) has(id uuid.UUID) bool {
	_, ok := h.names[id]
	return ok
}

func (h *hierarchy) ref(id uuid.UUID) RoleRef {
	return RoleRef{ID: id, Name: h.names[id]}
}

// ancestors returns the strict ancestors of id, nearest first.
func (h *hierarchy) ancestors(id uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	chain, ok := h.memo[id]
	h.mu.RUnlock()
	if ok {
		return chain
	}

	chain = []uuid.UUID{}
	walkAncestors(lookup(h.parents), id, func(a uuid.UUID) bool {
		chain = append(chain, a)
		return true
	})

	h.mu.Lock()
	h.memo[id] = chain
	h.mu.Unlock()
	return chain
}

// grants reports whether holding direct includes the role required.
func (h *hierarchy) grants(direct []uuid.UUID, required uuid.UUID) bool {
	for _, id := range direct {
		if !h.has(id) {
			continue
		}
		if id == required || slices.Contains(h.ancestors(id), required) {
			return true
		}
	}
	return false
}

// inherited returns the ancestors of direct that are not themselves direct,
// ordered by name.
func (h *hierarchy) inherited(direct []uuid.UUID) []RoleRef {
	own := make(map[uuid.UUID]struct{}, len(direct))
	for _, id := range direct {
		own[id] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{})
	refs := []RoleRef{}
	for _, id := range direct {
		if !h.has(id) {
			continue
		}
		for _, a := range h.ancestors(id) {
			if _, ok := own[a]; ok {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			refs = append(refs, h.ref(a))
		}
	}

	slices.SortFunc(refs, func(a, b RoleRef) int { return cmp.Compare(a.Name, b.Name) })
	return refs
}
