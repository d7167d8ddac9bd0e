// SPDX-License-Identifier: MPL-2.0

// Package compileerr defines the single error family reported by collection
// flattening. Every failure carries the document it originated from, an
// optional source line, the offending ids or paths, and a kind that maps to a
// sentinel error for errors.Is checks.
package compileerr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// KindReference is an unresolved or mistyped document reference.
	KindReference Kind = iota + 1
	// KindCycle is a direct or transitive collection self-reference, or nesting
	// deeper than the configured maximum.
	KindCycle
	// KindDuplicateID is two flattened instances sharing an id.
	KindDuplicateID
	// KindPropertyParse is a property literal that fails type validation.
	KindPropertyParse
	// KindOverrideTarget is an override naming a nonexistent instance,
	// component or property.
	KindOverrideTarget
	// KindPathCollision is two embedded payloads synthesizing the same path.
	KindPathCollision
)

var (
	// ErrReference is the sentinel for KindReference.
	ErrReference = errors.New("unresolved reference")
	// ErrCycle is the sentinel for KindCycle.
	ErrCycle = errors.New("collection cycle")
	// ErrDuplicateID is the sentinel for KindDuplicateID.
	ErrDuplicateID = errors.New("duplicate instance id")
	// ErrPropertyParse is the sentinel for KindPropertyParse.
	ErrPropertyParse = errors.New("invalid property value")
	// ErrOverrideTarget is the sentinel for KindOverrideTarget.
	ErrOverrideTarget = errors.New("invalid override target")
	// ErrPathCollision is the sentinel for KindPathCollision.
	ErrPathCollision = errors.New("generated path collision")
)

type (
	// Kind classifies a CompileError.
	Kind int

	// CompileError is a deterministic input-validation failure.
	CompileError struct {
		Kind Kind
		// Path is the document the failure originated in.
		Path string
		// Line is the 1-based source line, or 0 when unknown.
		Line int
		// IDs names the offending instances or documents. For cycles it is the
		// full reference chain, ending with the re-entered path.
		IDs []string
		// Message is the human-readable description.
		Message string
		// Err is the underlying cause, if any.
		Err error
	}
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindReference:
		return "ReferenceError"
	case KindCycle:
		return "CycleError"
	case KindDuplicateID:
		return "DuplicateIdError"
	case KindPropertyParse:
		return "PropertyParseError"
	case KindOverrideTarget:
		return "PropertyOverrideTargetError"
	case KindPathCollision:
		return "PathCollisionError"
	default:
		return "CompileError(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindReference:
		return ErrReference
	case KindCycle:
		return ErrCycle
	case KindDuplicateID:
		return ErrDuplicateID
	case KindPropertyParse:
		return ErrPropertyParse
	case KindOverrideTarget:
		return ErrOverrideTarget
	case KindPathCollision:
		return ErrPathCollision
	default:
		return nil
	}
}

// Error formats the error as "<path>:<line>: <message>: <cause>".
func (e *CompileError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		if e.Line > 0 {
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(e.Line))
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *CompileError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// As returns the first CompileError in err's chain.
func As(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Reference reports that ref, referenced from path at line, cannot be used.
func Reference(path string, line int, ref string, cause error) *CompileError {
	return &CompileError{
		Kind:    KindReference,
		Path:    path,
		Line:    line,
		IDs:     []string{ref},
		Message: fmt.Sprintf("unresolved reference %q", ref),
		Err:     cause,
	}
}

// Cycle reports the reference chain that re-enters its own ancestor. The last
// element of chain is the re-entered path.
func Cycle(chain []string) *CompileError {
	path := ""
	if len(chain) > 1 {
		path = chain[len(chain)-2]
	}
	return &CompileError{
		Kind:    KindCycle,
		Path:    path,
		IDs:     chain,
		Message: "collection cycle: " + strings.Join(chain, " -> "),
	}
}

// DepthExceeded reports nesting deeper than maxDepth along chain.
func DepthExceeded(chain []string, maxDepth int) *CompileError {
	path := ""
	if len(chain) > 0 {
		path = chain[len(chain)-1]
	}
	return &CompileError{
		Kind:    KindCycle,
		Path:    path,
		IDs:     chain,
		Message: fmt.Sprintf("collection nesting exceeds maximum depth %d: %s", maxDepth, strings.Join(chain, " -> ")),
	}
}

// DuplicateID reports id declared twice; firstPath and secondPath are the
// documents that authored each occurrence.
func DuplicateID(id, firstPath, secondPath string) *CompileError {
	return &CompileError{
		Kind:    KindDuplicateID,
		Path:    secondPath,
		IDs:     []string{id, id},
		Message: fmt.Sprintf("duplicate instance id %q (declared in %s and %s)", id, firstPath, secondPath),
	}
}

// PropertyParse reports a literal that is not a valid value of its type.
func PropertyParse(path string, line int, instance, component, property string, cause error) *CompileError {
	return &CompileError{
		Kind:    KindPropertyParse,
		Path:    path,
		Line:    line,
		IDs:     []string{instance, component, property},
		Message: fmt.Sprintf("the property %s.%s.%s has an invalid format", instance, component, property),
		Err:     cause,
	}
}

// OverrideTarget reports an override naming something that does not exist.
func OverrideTarget(path string, line int, target, reason string) *CompileError {
	return &CompileError{
		Kind:    KindOverrideTarget,
		Path:    path,
		Line:    line,
		IDs:     []string{target},
		Message: fmt.Sprintf("override target %q: %s", target, reason),
	}
}

// PathCollision reports two payloads synthesizing the same generated path.
func PathCollision(path, generated, first, second string) *CompileError {
	return &CompileError{
		Kind:    KindPathCollision,
		Path:    path,
		IDs:     []string{first, second},
		Message: fmt.Sprintf("embedded payloads %q and %q both generate %s", first, second, generated),
	}
}
