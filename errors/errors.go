package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a class of schema, decode or matching failure.
type ErrorCode string

const (
	// ErrMissingSection indicates a required document section or key is absent.
	ErrMissingSection ErrorCode = "missing-section"
	// ErrMalformedDocument indicates a source document could not be parsed or has the wrong shape.
	ErrMalformedDocument ErrorCode = "malformed-document"
	// ErrInvalidCode indicates a taxonomy id code is not hex or has the wrong length.
	ErrInvalidCode ErrorCode = "invalid-code"
	// ErrDanglingReference indicates a cross-reference names an item that was never loaded.
	ErrDanglingReference ErrorCode = "dangling-reference"
	// ErrDuplicateID indicates the same id code was declared twice in one scope.
	ErrDuplicateID ErrorCode = "duplicate-id"
	// ErrInheritanceCycle indicates a base chain refers back to itself.
	ErrInheritanceCycle ErrorCode = "inheritance-cycle"
	// ErrTreeTooDeep indicates an entity tree nests deeper than category, type and subtype.
	ErrTreeTooDeep ErrorCode = "tree-too-deep"
	// ErrInvalidTemplate indicates a template source could not be turned into a template.
	ErrInvalidTemplate ErrorCode = "invalid-template"
	// ErrCodeTooShort indicates a structured code is shorter than the minimum decodable length.
	ErrCodeTooShort ErrorCode = "code-too-short"
	// ErrAmbiguousMatch indicates the matcher could not order two distinct candidates.
	ErrAmbiguousMatch ErrorCode = "ambiguous-match"
	// ErrSchemaNotLoaded indicates an operation was attempted without a loaded schema.
	ErrSchemaNotLoaded ErrorCode = "schema-not-loaded"
)

// LoadError describes a schema or template source that could not be loaded.
// Source names the document and Path the key inside it.
//
//nolint:errname // public API name mirrors the load phase.
type LoadError struct {
	Err     error
	Code    ErrorCode
	Message string
	Source  string
	Path    string
}

// Error formats the load error with its code, message and location.
func (e *LoadError) Error() string {
	if e == nil {
		return "load error <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	switch {
	case e.Source != "" && e.Path != "":
		fmt.Fprintf(&b, " at %s:%s", e.Source, e.Path)
	case e.Source != "":
		fmt.Fprintf(&b, " in %s", e.Source)
	case e.Path != "":
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DecodeError describes a structured code that cannot be decoded at all.
//
//nolint:errname // public API name mirrors the decode phase.
type DecodeError struct {
	Code    ErrorCode
	Message string
	Input   string
}

// Error formats the decode error with its code and offending input.
func (e *DecodeError) Error() string {
	if e == nil {
		return "decode error <nil>"
	}
	if e.Input == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (input: %q)", e.Code, e.Message, e.Input)
}

// MatchError reports an internal inconsistency in candidate ordering.
//
//nolint:errname // public API name mirrors the matching phase.
type MatchError struct {
	Code       ErrorCode
	Message    string
	Candidates []string
}

// Error formats the match error with the conflicting candidates.
func (e *MatchError) Error() string {
	if e == nil {
		return "match error <nil>"
	}
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (candidates: %s)", e.Code, e.Message, strings.Join(e.Candidates, ", "))
}

// NewLoadError builds a LoadError with a code, location and message.
func NewLoadError(code ErrorCode, source, path, msg string) *LoadError {
	return &LoadError{Code: code, Source: source, Path: path, Message: msg}
}

// NewLoadErrorf formats a message and builds a LoadError.
func NewLoadErrorf(code ErrorCode, source, path, format string, args ...any) *LoadError {
	return NewLoadError(code, source, path, fmt.Sprintf(format, args...))
}

// WrapLoadError builds a LoadError around an underlying cause.
func WrapLoadError(code ErrorCode, source, path string, err error) *LoadError {
	return &LoadError{Code: code, Source: source, Path: path, Message: "cannot load", Err: err}
}

// NewDecodeErrorf formats a message and builds a DecodeError.
func NewDecodeErrorf(code ErrorCode, input, format string, args ...any) *DecodeError {
	return &DecodeError{Code: code, Input: input, Message: fmt.Sprintf(format, args...)}
}

// AsLoadError extracts the first LoadError from an error chain.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if err == nil || !errors.As(err, &le) || le == nil {
		return nil, false
	}
	return le, true
}

// AsDecodeError extracts the first DecodeError from an error chain.
func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if err == nil || !errors.As(err, &de) || de == nil {
		return nil, false
	}
	return de, true
}

// AsMatchError extracts the first MatchError from an error chain.
func AsMatchError(err error) (*MatchError, bool) {
	var me *MatchError
	if err == nil || !errors.As(err, &me) || me == nil {
		return nil, false
	}
	return me, true
}

// CodeOf returns the code carried by the first typed error in the chain.
func CodeOf(err error) (ErrorCode, bool) {
	if le, ok := AsLoadError(err); ok {
		return le.Code, true
	}
	if de, ok := AsDecodeError(err); ok {
		return de.Code, true
	}
	if me, ok := AsMatchError(err); ok {
		return me.Code, true
	}
	return "", false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
