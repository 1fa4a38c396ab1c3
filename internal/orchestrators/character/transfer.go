package character

import (
	"log/slog"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/services/conversion"
)

const copySuffix = " (Copy)"

// ExportCharacter returns the export document for a character. On failure
// the result is empty and the error is recorded.
func (o *Orchestrator) ExportCharacter(id string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil

	c, ok := o.roster.Get(id)
	if !ok {
		o.err = notFound(id)
		return "", o.err
	}

	data, err := conversion.Export(c, o.appName, o.clock.Now())
	if err != nil {
		o.err = err
		return "", err
	}
	return string(data), nil
}

// ImportCharacter decodes an export document or bare character, validates
// it strictly and inserts it under a new id. The version continues from the
// imported one. A rejected import returns "" and leaves the roster as it was.
func (o *Orchestrator) ImportCharacter(text string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil

	c, err := conversion.Import([]byte(text))
	if err != nil {
		o.err = err
		return "", err
	}

	sourceID := c.ID
	if c.ID, err = o.newID(); err != nil {
		o.err = err
		return "", err
	}
	now := o.clock.Now().UTC()
	if c.Version < 0 {
		c.Version = 0
	}
	c.Version++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	if err := o.gate.Validate(c); err != nil {
		o.err = errors.Wrap(asError(err), "import rejected")
		return "", o.err
	}

	o.insert(c, now)
	slog.Info("character imported",
		"character_id", c.ID,
		"source_id", sourceID,
		"version", c.Version)
	return c.ID, nil
}

// DuplicateCharacter copies a character under a new id with a "(Copy)"
// name suffix and a fresh version history.
func (o *Orchestrator) DuplicateCharacter(id string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = nil

	src, ok := o.roster.Get(id)
	if !ok {
		o.err = notFound(id)
		return "", o.err
	}

	newID, err := o.newID()
	if err != nil {
		o.err = err
		return "", err
	}
	now := o.clock.Now().UTC()
	c := src.Clone()
	c.ID = newID
	c.Name += copySuffix
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now

	o.insert(c, now)
	slog.Info("character duplicated", "character_id", c.ID, "source_id", id)
	return c.ID, nil
}
