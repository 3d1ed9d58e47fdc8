package ilerr

import (
	"fmt"
	"github.com/cottand/tyinfer/frontend/types"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
var enableDebugErrorPrinting = false

const enableDebugFullStacktrace bool = false

// SetDebugPrinting toggles whether FormatWithCode prefixes errors with the
// frame that created them
func SetDebugPrinting(enabled bool) {
	enableDebugErrorPrinting = enabled
}

type ErrCode int

const (
	None         ErrCode = iota
	TypeMismatch ErrCode = iota
	EqualityMismatch
	ConflictingAssignment
	BoundViolation
	DerivationLoop
)

// InferError is an inference failure: a property of the constraints,
// not a bug in the caller
type InferError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) InferError
	getStack() []byte
}

func FormatWithCode(e InferError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// New records where err was created
func New[E InferError](err E) InferError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From  error
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) InferError {
	e.stack = stack
	return e
}

// NewTypeMismatch is a structural mismatch between two fully known types,
// found while expanding bounds
type NewTypeMismatch struct {
	Sub   types.Type
	Super types.Type
	stack []byte
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: '%v' is not a subtype of '%v'", e.Sub, e.Super)
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) InferError {
	e.stack = stack
	return e
}

type NewEqualityMismatch struct {
	First  types.Type
	Second types.Type
	stack  []byte
}

func (e NewEqualityMismatch) Error() string {
	return fmt.Sprintf("type mismatch: '%v' and '%v' were required to be equal", e.First, e.Second)
}
func (e NewEqualityMismatch) Code() ErrCode    { return EqualityMismatch }
func (e NewEqualityMismatch) getStack() []byte { return e.stack }
func (e NewEqualityMismatch) withStack(stack []byte) InferError {
	e.stack = stack
	return e
}

// NewConflictingAssignment is a type variable required to equal two
// different types
type NewConflictingAssignment struct {
	Param    string
	Assigned types.Type
	Rejected types.Type
	stack    []byte
}

func (e NewConflictingAssignment) Error() string {
	return fmt.Sprintf("incompatible equality constraints for '%s': '%v' and '%v'", e.Param, e.Assigned, e.Rejected)
}
func (e NewConflictingAssignment) Code() ErrCode    { return ConflictingAssignment }
func (e NewConflictingAssignment) getStack() []byte { return e.stack }
func (e NewConflictingAssignment) withStack(stack []byte) InferError {
	e.stack = stack
	return e
}

// NewBoundViolation is a solved value that does not respect one of its bounds
type NewBoundViolation struct {
	Sub   types.Type
	Super types.Type
	// Subject is the node whose bound is violated, as a readable string
	Subject string
	stack   []byte
}

func (e NewBoundViolation) Error() string {
	return fmt.Sprintf("bound violated for %s: '%v' is not a subtype of '%v'", e.Subject, e.Sub, e.Super)
}
func (e NewBoundViolation) Code() ErrCode    { return BoundViolation }
func (e NewBoundViolation) getStack() []byte { return e.stack }
func (e NewBoundViolation) withStack(stack []byte) InferError {
	e.stack = stack
	return e
}

// NewDerivationLoop is a type variable whose value depends on itself
type NewDerivationLoop struct {
	Param string
	stack []byte
}

func (e NewDerivationLoop) Error() string {
	return fmt.Sprintf("cannot infer a value for '%s': it depends on itself", e.Param)
}
func (e NewDerivationLoop) Code() ErrCode    { return DerivationLoop }
func (e NewDerivationLoop) getStack() []byte { return e.stack }
func (e NewDerivationLoop) withStack(stack []byte) InferError {
	e.stack = stack
	return e
}
