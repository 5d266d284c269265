// Package template implements the Template Preparer (C1): deploy-time
// parameter substitution and credential-placeholder resolution applied to
// a workflow before it is handed to the engine.
package template

import (
	"errors"
	"fmt"
)

// ErrVariableNotFound means a {{NAME}} placeholder has no entry in params
// and strict resolution was requested.
var ErrVariableNotFound = errors.New("variable not found")

// ErrInvalidTemplate means a placeholder could not be parsed at all.
var ErrInvalidTemplate = errors.New("invalid template syntax")

// TemplateError reports a failed placeholder resolution, including enough
// context (the whole string, the variable name, and the nested path if any)
// to point at exactly which placeholder failed.
type TemplateError struct {
	Template string
	Variable string
	Path     string
	Err      error
}

// Error renders "template error in '<template>': failed to resolve
// '{{<variable>[.<path>]}}': <underlying>".
func (e *TemplateError) Error() string {
	placeholder := e.Variable
	if e.Path != "" {
		placeholder = e.Variable + "." + e.Path
	}
	return fmt.Sprintf("template error in '%s': failed to resolve '{{%s}}': %s", e.Template, placeholder, e.Err)
}

// Unwrap exposes the underlying sentinel so errors.Is(err, ErrVariableNotFound) works.
func (e *TemplateError) Unwrap() error {
	return e.Err
}
