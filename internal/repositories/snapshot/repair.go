package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/history"
)

// RepairReport describes what Repair kept and dropped. Renamed maps a key
// to the different id its character was stored with.
type RepairReport struct {
	Kept    []string
	Dropped map[string]string
	Renamed map[string]string
}

// Changed reports whether anything was dropped or renamed
func (r *RepairReport) Changed() bool {
	return len(r.Dropped) > 0 || len(r.Renamed) > 0
}

// Repair salvages a snapshot whose roster no longer decodes as a whole.
// Characters are decoded one at a time and any that fail, or that check
// rejects when check is non-nil, are dropped. Only a payload that is not a
// JSON object at all is an error.
func Repair(snap *Snapshot, check func(*sw5e.Character) error) (*State, *RepairReport, error) {
	report := &RepairReport{Dropped: map[string]string{}, Renamed: map[string]string{}}
	if snap == nil || len(snap.Data) == 0 {
		return &State{}, report, nil
	}

	var doc struct {
		Characters        json.RawMessage `json:"characters"`
		ActiveCharacterID *string         `json:"activeCharacterId"`
	}
	if err := json.Unmarshal(snap.Data, &doc); err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.CodeSerialization, "snapshot payload is not a JSON object")
	}

	chars, err := salvage(doc.Characters, check, report)
	if err != nil {
		return nil, nil, err
	}

	state := &State{Characters: history.NewRoster(chars...)}
	if doc.ActiveCharacterID != nil && *doc.ActiveCharacterID != "" {
		state.ActiveCharacterID = state.Characters.ResolveActive(*doc.ActiveCharacterID)
	}
	return state, report, nil
}

func salvage(raw json.RawMessage, check func(*sw5e.Character) error, report *RepairReport) ([]*sw5e.Character, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "characters are unreadable")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Serializationf("characters: expected object, got %v", tok)
	}

	var chars []*sw5e.Character
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeSerialization, "characters are unreadable")
		}
		key := fmt.Sprint(tok)

		var entry json.RawMessage
		if err := dec.Decode(&entry); err != nil {
			return nil, errors.WrapWithCodef(err, errors.CodeSerialization, "character %s is unreadable", key)
		}

		var c sw5e.Character
		if err := json.Unmarshal(entry, &c); err != nil {
			report.Dropped[key] = err.Error()
			continue
		}
		if c.ID != "" && c.ID != key {
			report.Renamed[key] = c.ID
		}
		c.ID = key
		if check != nil {
			if err := check(&c); err != nil {
				report.Dropped[key] = err.Error()
				continue
			}
		}
		chars = append(chars, &c)
		report.Kept = append(report.Kept, c.ID)
	}
	return chars, nil
}
