package snapshot

import (
	"encoding/json"
	"time"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/history"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/clock"
)

// DefaultKey is the persisted key used when none is configured
const DefaultKey = "sw5e-character-storage"

// Snapshot is the persisted envelope. Version is the epoch milliseconds of
// the write and orders writes across instances.
type Snapshot struct {
	Data        json.RawMessage `json:"data"`
	Version     int64           `json:"version"`
	LastUpdated string          `json:"lastUpdated"`
}

// State is the persisted subset of the roster; history and derived values
// are rebuilt on load.
type State struct {
	Characters        history.Roster
	ActiveCharacterID string
}

type stateJSON struct {
	Characters        history.Roster `json:"characters"`
	ActiveCharacterID *string        `json:"activeCharacterId"`
}

// MarshalJSON writes an empty active id as null
func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{Characters: s.Characters}
	if s.ActiveCharacterID != "" {
		active := s.ActiveCharacterID
		out.ActiveCharacterID = &active
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the persisted state
func (s *State) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Characters = in.Characters
	s.ActiveCharacterID = ""
	if in.ActiveCharacterID != nil {
		s.ActiveCharacterID = *in.ActiveCharacterID
	}
	return nil
}

// New encodes state into a snapshot stamped with now
func New(state State, now time.Time) (*Snapshot, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to encode roster")
	}

	return &Snapshot{
		Data:        data,
		Version:     clock.Millis(now),
		LastUpdated: now.UTC().Format(time.RFC3339Nano),
	}, nil
}

// State decodes the snapshot payload
func (s *Snapshot) State() (*State, error) {
	if s == nil || len(s.Data) == 0 {
		return &State{}, nil
	}

	var state State
	if err := json.Unmarshal(s.Data, &state); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to decode roster")
	}
	if state.ActiveCharacterID != "" {
		state.ActiveCharacterID = state.Characters.ResolveActive(state.ActiveCharacterID)
	}
	return &state, nil
}

func encodeEnvelope(s *Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to encode snapshot")
	}
	return raw, nil
}

func decodeEnvelope(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to decode snapshot")
	}
	return &s, nil
}
