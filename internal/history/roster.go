// Package history holds the in-memory character roster and the undo/redo
// stack built over whole-roster snapshots.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
)

// Roster is an insertion-ordered, copy-on-write map of characters.
// Put and Delete return a new Roster; the receiver is never modified, so a
// Roster value can be kept as a snapshot without copying any character.
// Characters reached through a Roster must be treated as read-only.
type Roster struct {
	byID  map[string]*sw5e.Character
	order []string
}

// NewRoster builds a roster holding chars in the given order
func NewRoster(chars ...*sw5e.Character) Roster {
	r := Roster{byID: make(map[string]*sw5e.Character, len(chars))}
	for _, c := range chars {
		if c == nil {
			continue
		}
		if _, ok := r.byID[c.ID]; !ok {
			r.order = append(r.order, c.ID)
		}
		r.byID[c.ID] = c
	}
	return r
}

// Get returns the character with the given id
func (r Roster) Get(id string) (*sw5e.Character, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Has reports whether id is present
func (r Roster) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Len returns the number of characters
func (r Roster) Len() int {
	return len(r.order)
}

// IDs returns the ids in insertion order
func (r Roster) IDs() []string {
	return append([]string(nil), r.order...)
}

// First returns the first id in insertion order, or "" when empty
func (r Roster) First() string {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// Characters returns the characters in insertion order
func (r Roster) Characters() []*sw5e.Character {
	out := make([]*sw5e.Character, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Put returns a roster with c stored under c.ID. Replacing an existing id
// keeps its position.
func (r Roster) Put(c *sw5e.Character) Roster {
	next := r.Clone()
	if _, ok := next.byID[c.ID]; !ok {
		next.order = append(next.order, c.ID)
	}
	next.byID[c.ID] = c
	return next
}

// Delete returns a roster without id
func (r Roster) Delete(id string) Roster {
	if !r.Has(id) {
		return r
	}

	next := Roster{
		byID:  make(map[string]*sw5e.Character, len(r.byID)-1),
		order: make([]string, 0, len(r.order)-1),
	}
	for _, existing := range r.order {
		if existing == id {
			continue
		}
		next.order = append(next.order, existing)
		next.byID[existing] = r.byID[existing]
	}
	return next
}

// Clone returns a shallow copy: a new map and order slice sharing characters
func (r Roster) Clone() Roster {
	next := Roster{
		byID:  make(map[string]*sw5e.Character, len(r.byID)+1),
		order: make([]string, len(r.order), len(r.order)+1),
	}
	copy(next.order, r.order)
	for id, c := range r.byID {
		next.byID[id] = c
	}
	return next
}

// ResolveActive returns active when it is still present, otherwise the first
// remaining id, or "" for an empty roster.
func (r Roster) ResolveActive(active string) string {
	if active != "" && r.Has(active) {
		return active
	}
	return r.First()
}

// MarshalJSON writes the roster as a JSON object keyed by id, in insertion order
func (r Roster) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.byID[id])
		if err != nil {
			return nil, fmt.Errorf("character %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keyed by id, keeping document order.
// The key is the character's id: a stored id that is missing or disagrees
// with it is replaced.
func (r *Roster) UnmarshalJSON(data []byte) error {
	*r = Roster{byID: map[string]*sw5e.Character{}}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("characters: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("characters: expected string key, got %v", tok)
		}

		var c sw5e.Character
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("character %s: %w", key, err)
		}
		c.ID = key

		if _, exists := r.byID[key]; !exists {
			r.order = append(r.order, key)
		}
		r.byID[key] = &c
	}

	_, err = dec.Token()
	return err
}
