// Package errors provides the structured error type shared by every layer of
// the character engine.
//
// Errors carry a Code, a user-facing Message, an optional Cause and free-form
// Meta. Callers inspect them with the Is* helpers instead of string matching:
//
//	if errors.IsNotFound(err) {
//	    // render "character missing" inline
//	}
//
// Adding metadata:
//
//	err := errors.NotFoundf("character %s not found", id).
//	    WithMeta("character_id", id)
//
// Wrapping keeps the original code when the cause is already an *Error:
//
//	if err := store.Set(ctx, key, snap); err != nil {
//	    return errors.Wrap(err, "failed to persist roster")
//	}
//
// # Validation Errors
//
// Field violations are aggregated rather than reported one at a time:
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRequired("name", input.Name, vb)
//	errors.ValidateRange("level", input.Level, 1, 20, vb)
//	if err := vb.Build(); err != nil {
//	    return err
//	}
//
// The resulting error is InvalidArgument with the per-field messages stored
// under the "validation_errors" meta key. FieldErrors extracts them back.
//
// # Layer Guidelines
//
// Stores return NotFound/Unavailable/Serialization with the key in meta.
// The orchestrator returns NotFound for absent character ids and records
// every failure in its error field so the UI can render it reactively.
package errors
