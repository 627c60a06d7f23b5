package cert

import (
	"errors"
	"fmt"

	"github.com/remiblancher/qcert/internal/x509util"
)

// Error represents a certificate lifecycle error with structured context.
// It supports errors.Is() and errors.As().
type Error struct {
	Op  string // Operation: "generate", "install", "save", "load", "renew", "set_subject_data"
	Key string // Subject field name or file path (if applicable)
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cert %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("cert %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

func newError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// Configuration errors. The caller must fix its input; retrying is pointless.
var (
	// ErrUnknownSubjectField indicates a subject field name that is not recognized.
	ErrUnknownSubjectField = errors.New("unknown subject field")

	// ErrInvalidSAN indicates a malformed Subject Alternative Name entry.
	ErrInvalidSAN = x509util.ErrInvalidSAN

	// ErrInvalidValue indicates a subject value of the wrong type or form.
	ErrInvalidValue = errors.New("invalid subject value")

	// ErrInvalidValidity indicates a non-positive validity in days.
	ErrInvalidValidity = errors.New("validity must be a positive number of days")
)

// State errors. The operation is not possible in the manager's current state.
var (
	// ErrNoKey indicates the manager holds no valid key pair.
	ErrNoKey = errors.New("no valid key pair")

	// ErrNotGenerated indicates the record has no validity window yet.
	ErrNotGenerated = errors.New("certificate has not been generated")

	// ErrNotSigned indicates the record has changed since it was last signed.
	ErrNotSigned = errors.New("certificate is not signed")

	// ErrKeyMismatch indicates the private key does not match the certificate.
	ErrKeyMismatch = errors.New("key does not match certificate")
)

// IsConfigurationError reports whether err was caused by invalid input.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownSubjectField) ||
		errors.Is(err, ErrInvalidSAN) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrInvalidValidity)
}

// IsStateError reports whether err was caused by the manager's state.
func IsStateError(err error) bool {
	return errors.Is(err, ErrNoKey) ||
		errors.Is(err, ErrNotGenerated) ||
		errors.Is(err, ErrNotSigned) ||
		errors.Is(err, ErrKeyMismatch)
}
