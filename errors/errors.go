package errors

import "fmt"

var (
	ErrValidation     = fmt.Errorf("required field is empty or invalid")
	ErrAuthentication = fmt.Errorf("credential does not match")
	ErrNotFound       = fmt.Errorf("record not found")
	ErrStorage        = fmt.Errorf("storage failure")
	ErrUsernameTaken  = fmt.Errorf("username already taken")
)

// Storage wraps a store-level error so callers can match ErrStorage
// while keeping the underlying cause in the chain.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
