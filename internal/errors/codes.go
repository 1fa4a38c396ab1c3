package errors

// Code represents an error code
type Code string

// Error codes
const (
	CodeOK                 Code = "OK"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeInternal           Code = "INTERNAL"
	CodeUnavailable        Code = "UNAVAILABLE"
	// CodeSerialization covers malformed import documents and failed
	// persistence encodes or writes.
	CodeSerialization Code = "SERIALIZATION"
)

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}
