package model

import "encoding/json"

// Arena holds child entities of an aggregate in insertion order, addressed by
// stable id rather than by slice index. The zero value is ready to use.
type Arena[T any] struct {
	order []string
	byID  map[string]*T
}

func (a *Arena[T]) init() {
	if a.byID == nil {
		a.byID = make(map[string]*T)
	}
}

// Put inserts v under id, or replaces the existing entry in place.
func (a *Arena[T]) Put(id string, v *T) {
	a.init()
	if _, ok := a.byID[id]; !ok {
		a.order = append(a.order, id)
	}
	a.byID[id] = v
}

func (a *Arena[T]) Get(id string) (*T, bool) {
	v, ok := a.byID[id]
	return v, ok
}

// Remove deletes id and reports whether it was present.
func (a *Arena[T]) Remove(id string) bool {
	if _, ok := a.byID[id]; !ok {
		return false
	}
	delete(a.byID, id)
	for i, oid := range a.order {
		if oid == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

func (a *Arena[T]) Len() int { return len(a.order) }

// All returns the entries in insertion order.
func (a *Arena[T]) All() []*T {
	out := make([]*T, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

// Find returns the first entry matching fn.
func (a *Arena[T]) Find(fn func(*T) bool) (*T, bool) {
	for _, id := range a.order {
		if v := a.byID[id]; fn(v) {
			return v, true
		}
	}
	return nil, false
}

// RemoveFunc deletes every entry matching fn and returns how many went.
func (a *Arena[T]) RemoveFunc(fn func(*T) bool) int {
	kept := a.order[:0]
	removed := 0
	for _, id := range a.order {
		if fn(a.byID[id]) {
			delete(a.byID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	a.order = kept
	return removed
}

func (a Arena[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.All())
}
