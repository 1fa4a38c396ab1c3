package snapshot_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
)

func TestRepairDropsUndecodableCharacters(t *testing.T) {
	snap := &snapshot.Snapshot{Data: json.RawMessage(`{
		"characters": {
			"char_1": {"id": "char_1", "name": "Kira", "level": 1},
			"char_2": {"id": "char_2", "name": "Dorn", "level": "three"},
			"char_3": {"name": "Vex", "level": 2}
		},
		"activeCharacterId": "char_2"
	}`), Version: 1}

	state, report, err := snapshot.Repair(snap, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"char_1", "char_3"}, state.Characters.IDs())
	assert.Equal(t, []string{"char_1", "char_3"}, report.Kept)
	assert.Contains(t, report.Dropped, "char_2")
	assert.True(t, report.Changed())
	assert.Equal(t, "char_1", state.ActiveCharacterID)

	vex, ok := state.Characters.Get("char_3")
	require.True(t, ok)
	assert.Equal(t, "Vex", vex.Name)
}

func TestRepairResetsMismatchedIDs(t *testing.T) {
	snap := &snapshot.Snapshot{Data: json.RawMessage(`{
		"characters": {
			"a": {"id": "b", "name": "Kira", "level": 1}
		},
		"activeCharacterId": "a"
	}`), Version: 1}

	state, report, err := snapshot.Repair(snap, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, state.Characters.IDs())
	assert.Equal(t, []string{"a"}, report.Kept)
	assert.Equal(t, map[string]string{"a": "b"}, report.Renamed)
	assert.True(t, report.Changed())
	assert.Equal(t, "a", state.ActiveCharacterID)
}

func TestRepairAppliesCheck(t *testing.T) {
	snap := &snapshot.Snapshot{Data: json.RawMessage(`{
		"characters": {
			"char_1": {"id": "char_1", "name": "Kira", "level": 1},
			"char_2": {"id": "char_2", "name": "", "level": 1}
		},
		"activeCharacterId": null
	}`)}

	state, report, err := snapshot.Repair(snap, func(c *sw5e.Character) error {
		if c.Name == "" {
			return errors.InvalidArgument("name is required")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"char_1"}, state.Characters.IDs())
	assert.Equal(t, "", state.ActiveCharacterID)
	assert.Contains(t, report.Dropped["char_2"], "name is required")
}

func TestRepairCleanSnapshot(t *testing.T) {
	state, report, err := snapshot.Repair(&snapshot.Snapshot{Data: json.RawMessage(`{"characters":{}}`)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Characters.Len())
	assert.False(t, report.Changed())

	state, report, err = snapshot.Repair(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Characters.Len())
	assert.False(t, report.Changed())
}

func TestRepairRejectsUnreadablePayload(t *testing.T) {
	_, _, err := snapshot.Repair(&snapshot.Snapshot{Data: json.RawMessage(`"oops"`)}, nil)
	assert.True(t, errors.IsSerialization(err))

	_, _, err = snapshot.Repair(&snapshot.Snapshot{Data: json.RawMessage(`{"characters":[1,2]}`)}, nil)
	assert.True(t, errors.IsSerialization(err))
}
