package schema

import "fmt"

// ValidationError reports a malformed declarative schema document: a missing
// required record field or an unparseable type reference.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "schema document invalid: " + e.Message
	}
	return "schema document invalid at " + e.Path + ": " + e.Message
}

func validationErrorf(path, format string, args ...any) error {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// BuildError reports a document that decoded cleanly but does not assemble
// into a consistent schema (dangling type references, bad root types).
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string { return "schema build failed: " + e.Message }

func buildErrorf(format string, args ...any) error {
	return &BuildError{Message: fmt.Sprintf(format, args...)}
}
