package control

import "errors"

// Errors reported by façade operations. Every one of these ends in a
// user-visible notification; none escapes as an unhandled fault and no
// failing operation leaves host or metadata state changed.
var (
	// ErrInvalidMark is returned for identifiers that are not exactly one
	// lowercase letter a-z.
	ErrInvalidMark = errors.New("invalid mark letter")

	// ErrExhausted is returned by auto-assign when all 26 letters are in
	// use in the buffer.
	ErrExhausted = errors.New("all mark letters are in use")

	// ErrNotFound is the non-fatal condition for deleting an absent mark.
	ErrNotFound = errors.New("mark not found")

	// ErrNoMarks is the non-fatal condition for navigating an empty
	// mark set.
	ErrNoMarks = errors.New("no marks")

	// ErrNoOtherMarks is the non-fatal condition for navigating when the
	// only mark is under the cursor.
	ErrNoOtherMarks = errors.New("no other marks")
)
