package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a single structural problem with a workflow, node,
// edge, or trigger definition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a batch of ValidationError; Error() reports the first.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Error()
}

// Sentinel errors shared across the domain and storage layers. Callers
// compare against these with errors.Is rather than string-matching.
var (
	ErrClientClosed = errors.New("client is closed")

	ErrInvalidWorkflowID = errors.New("invalid workflow ID")
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrWorkflowExists    = errors.New("workflow already exists")
	ErrInvalidWorkflow   = errors.New("invalid workflow")
	ErrCyclicDependency  = errors.New("cyclic dependency detected")
	ErrOrphanedNodes     = errors.New("orphaned nodes detected")
	ErrInvalidNodeType   = errors.New("invalid node type")
	ErrNodeNotFound      = errors.New("node not found")
	ErrEdgeNotFound      = errors.New("edge not found")
	ErrInvalidEdge       = errors.New("invalid edge")

	ErrInvalidExecutionID  = errors.New("invalid execution ID")
	ErrExecutionNotFound   = errors.New("execution not found")
	ErrExecutionFailed     = errors.New("execution failed")
	ErrExecutionCancelled  = errors.New("execution cancelled")
	ErrExecutionTimeout    = errors.New("execution timeout")
	ErrNodeExecutionFailed = errors.New("node execution failed")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidOutput       = errors.New("invalid output")

	ErrInvalidTriggerID     = errors.New("invalid trigger ID")
	ErrTriggerNotFound      = errors.New("trigger not found")
	ErrInvalidTriggerType   = errors.New("invalid trigger type")
	ErrInvalidTriggerConfig = errors.New("invalid trigger configuration")
	ErrTriggerDisabled      = errors.New("trigger is disabled")

	ErrExecutorNotFound = errors.New("executor not found")
	ErrExecutorFailed   = errors.New("executor failed")
	ErrInvalidConfig    = errors.New("invalid configuration")

	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrRoleNotFound       = errors.New("role not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrRequired         = errors.New("required field is missing")

	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountInactive       = errors.New("account is inactive")
	ErrAccountSuspended      = errors.New("account is suspended")
	ErrAccountClosed         = errors.New("account is closed")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")
	ErrStorageLimitExceeded  = errors.New("storage limit exceeded")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionFailed     = errors.New("transaction failed")
	ErrDuplicateTransaction  = errors.New("duplicate transaction")
	ErrPricingPlanNotFound   = errors.New("pricing plan not found")
	ErrInvalidResourceType   = errors.New("invalid resource type")
	ErrInvalidID             = errors.New("invalid ID format")

	ErrRentalKeyNotFound         = errors.New("rental key not found")
	ErrRentalKeySuspended        = errors.New("rental key is suspended")
	ErrRentalKeyAccessDenied     = errors.New("rental key access denied")
	ErrDailyLimitExceeded        = errors.New("daily request limit exceeded")
	ErrMonthlyTokenLimitExceeded = errors.New("monthly token limit exceeded")

	ErrServiceKeyNotFound     = errors.New("service key not found")
	ErrServiceKeyRevoked      = errors.New("service key has been revoked")
	ErrServiceKeyExpired      = errors.New("service key has expired")
	ErrInvalidServiceKey      = errors.New("invalid service key")
	ErrServiceKeyLimitReached = errors.New("service key limit reached for user")

	ErrSystemKeyNotFound     = errors.New("system key not found")
	ErrSystemKeyRevoked      = errors.New("system key has been revoked")
	ErrSystemKeyExpired      = errors.New("system key has expired")
	ErrInvalidSystemKey      = errors.New("invalid system key")
	ErrSystemKeyLimitReached = errors.New("system key limit reached")

	ErrMigratorNotInitialized = errors.New("migrator not initialized")
)

// WorkflowError wraps an error with the workflow and operation it occurred in.
type WorkflowError struct {
	WorkflowID string
	Operation  string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow %s %s: %v", e.WorkflowID, e.Operation, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// ExecutionError wraps an error with the execution (and optionally node) it
// occurred in. Distinct from the lighter-weight ExecutionError in execution.go,
// which records per-node recoverable failures inside an ExecutionResult.
type RunError struct {
	ExecutionID string
	NodeID      string
	Err         error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("execution %s", e.ExecutionID)
	if e.NodeID != "" {
		msg += fmt.Sprintf(" node %s", e.NodeID)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// AuthError represents an authentication or authorization failure, e.g. a
// credential refresh (internal/application/oauthrefresh) that could not
// obtain a usable access token.
type AuthError struct {
	UserID string
	Action string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "auth error"
	if e.UserID != "" {
		msg += " for user " + e.UserID
	}
	if e.Action != "" {
		msg += " during " + e.Action
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
