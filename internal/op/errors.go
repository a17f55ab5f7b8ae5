package op

import (
	"errors"
	"fmt"
)

// Error kinds shared by all operators. Precondition violations are raised
// synchronously, during shape/dtype inference where observable there and at
// kernel entry otherwise. A failed invocation produces no partial output.
var (
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrInvalidMask       = errors.New("invalid row mask")
	ErrInvalidAttribute  = errors.New("invalid attribute")
	ErrMissingQuantParam = errors.New("missing quantization parameter")
	ErrUnknownOperator   = errors.New("unknown operator")
	// ErrInvalidArity marks invocation wiring mistakes: a slot count that
	// does not match the descriptor, or a nil required input. Kept separate
	// from ErrShapeMismatch, which is reserved for genuine tensor-shape
	// violations.
	ErrInvalidArity = errors.New("invalid operator arity")
)

// OperandError annotates an error kind with the operator and operand that
// violated the precondition.
type OperandError struct {
	Op      string // Operator name
	Operand string // Input/output slot name involved
	Kind    error  // One of the sentinel error kinds above
	Details string // Additional details
}

// Error implements the error interface.
func (e *OperandError) Error() string {
	if e.Operand != "" {
		return fmt.Sprintf("%s: operand %q: %v: %s", e.Op, e.Operand, e.Kind, e.Details)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Details)
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *OperandError) Unwrap() error {
	return e.Kind
}

// Errorf builds an OperandError for the given operator, operand and kind.
func Errorf(opName, operand string, kind error, format string, args ...any) error {
	return &OperandError{
		Op:      opName,
		Operand: operand,
		Kind:    kind,
		Details: fmt.Sprintf(format, args...),
	}
}
