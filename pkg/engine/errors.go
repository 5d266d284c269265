package engine

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrorKind classifies why an execution failed, matching the error taxonomy
// a caller needs to decide whether to retry, surface to a user, or ignore.
type ErrorKind string

const (
	KindCredentialMissing ErrorKind = "CredentialMissing"
	KindExecutorFailure   ErrorKind = "ExecutorFailure"
	KindWorkflowValidation ErrorKind = "WorkflowValidation"
	KindStall            ErrorKind = "Stall"
	KindAuthError        ErrorKind = "AuthError"
	KindPersistenceError ErrorKind = "PersistenceError"
)

// Sentinel errors so callers can use errors.Is against a stable value
// regardless of the message text wrapped around it.
var (
	ErrNoEntryNodes  = errors.New("workflow has no entry nodes")
	ErrStall         = errors.New("execution stalled: no progress in a pass")
	ErrUnresolvedRef = errors.New("unresolved node reference")
)

// NodeError is the error type an Executor returns to signal a node-local
// failure. Kind is normally ExecutorFailure; the engine reclassifies it to
// CredentialMissing itself by pattern-matching Message, per §4.5 — an
// executor does not need to know about that policy.
type NodeError struct {
	Node    string
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *NodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("node %s: %s: %v", e.Node, e.Message, e.Cause)
	}
	return fmt.Sprintf("node %s: %s", e.Node, e.Message)
}

func (e *NodeError) Unwrap() error { return e.Cause }

// NewNodeError builds an ExecutorFailure-kind NodeError; executors needing
// a different classification set Kind after construction.
func NewNodeError(node, message string, cause error) *NodeError {
	return &NodeError{Node: node, Kind: KindExecutorFailure, Message: message, Cause: cause}
}

// WorkflowError reports a structural problem discovered before or during
// execution: no entry nodes, an unresolved edge target, or no registered
// executor for a node's type.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
}

func (e *WorkflowError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// StallError reports that the main loop made no progress in a pass while
// nodes remained unexecuted.
type StallError struct {
	Unexecuted []string
}

func (e *StallError) Error() string {
	return fmt.Sprintf("stall after exhausting pass budget: %d nodes never executed: %v", len(e.Unexecuted), e.Unexecuted)
}

func (e *StallError) Unwrap() error { return ErrStall }

// AuthError reports that credential refresh failed for a required
// provider; it aborts the current polling tick but leaves the automation
// registered so the next tick retries.
type AuthError struct {
	Provider string
	Reason   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth refresh failed for provider %s: %s", e.Provider, e.Reason)
}

// PersistenceError reports a metadata-store write failure. It is always
// logged and never aborts the invocation that produced it; the caller
// proceeds with in-memory state for the current tick.
type PersistenceError struct {
	Operation string
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Operation, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// credentialMissingPattern matches the phrasing executors use when a
// required token, API key, or access token could not be located. The engine
// uses this, not an explicit error kind from the executor, to decide whether
// a failure is recoverable per §4.5 — this mirrors the source behavior of
// detecting credential problems from the error text itself.
var credentialMissingPattern = regexp.MustCompile(
	`(?i)(api[ _-]?key|access[ _-]?token|refresh[ _-]?token|credential)s?\s+(not provided|missing|absent|not found|required)`,
)

// isCredentialMissing reports whether msg looks like a missing-credential
// error, per the pattern used by §4.5's failure policy.
func isCredentialMissing(msg string) bool {
	return credentialMissingPattern.MatchString(msg)
}
