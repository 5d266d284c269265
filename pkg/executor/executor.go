// Package executor implements the node executor registry (component C4):
// a type-keyed set of Executor implementations the engine dispatches node
// execution to, plus the small parameter-helper base every builtin executor
// embeds.
package executor

import (
	"fmt"
	"sync"

	"github.com/smilemakc/mbflow/go/pkg/engine"
)

// BaseExecutor carries an executor's node type and the parameter-reading
// helpers every builtin executor uses to pull typed values out of a node's
// resolved parameters map, with a default when the key is absent or the
// wrong type. Resolution of {{ }} templates and expressions already
// happened upstream (C1/C3) before Execute ever sees the map, so these
// helpers only deal with plain JSON-shaped values.
type BaseExecutor struct {
	nodeType string
}

// NewBaseExecutor returns a BaseExecutor for the given node type string.
func NewBaseExecutor(nodeType string) *BaseExecutor {
	return &BaseExecutor{nodeType: nodeType}
}

// Type returns the node type this executor handles.
func (b *BaseExecutor) Type() string { return b.nodeType }

// GetString returns params[key] as a string, or an error if absent or not
// a string.
func (b *BaseExecutor) GetString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%s: missing required parameter %q", b.nodeType, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: parameter %q must be a string, got %T", b.nodeType, key, v)
	}
	return s, nil
}

// GetStringDefault returns params[key] as a string, or def if absent/wrong type.
func (b *BaseExecutor) GetStringDefault(params map[string]any, key, def string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetBoolDefault returns params[key] as a bool, or def if absent/wrong type.
func (b *BaseExecutor) GetBoolDefault(params map[string]any, key string, def bool) bool {
	if v, ok := params[key]; ok {
		if bv, ok := v.(bool); ok {
			return bv
		}
	}
	return def
}

// GetIntDefault returns params[key] as an int, accepting JSON's float64 or a
// plain int, or def if absent/wrong type.
func (b *BaseExecutor) GetIntDefault(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// ValidateRequired checks that every named key is present in params.
func (b *BaseExecutor) ValidateRequired(params map[string]any, keys ...string) error {
	for _, key := range keys {
		if _, ok := params[key]; !ok {
			return fmt.Errorf("%s: missing required parameter %q", b.nodeType, key)
		}
	}
	return nil
}

// GetFloat64Default returns params[key] as a float64, or def if absent/wrong type.
func (b *BaseExecutor) GetFloat64Default(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// Manager is the concrete ExecutorManager (§4.1): a registry of Executor
// implementations keyed by node type, safe for concurrent Get calls while
// new executors register (e.g. a plugin loaded after startup).
type Manager struct {
	mu        sync.RWMutex
	executors map[string]engine.Executor
}

// NewManager returns an empty executor registry.
func NewManager() *Manager {
	return &Manager{executors: make(map[string]engine.Executor)}
}

// Register adds e under its own Type(). A later Register for the same type
// replaces the earlier one, which lets a host application override a
// builtin executor without forking this package.
func (m *Manager) Register(e engine.Executor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executors[e.Type()] = e
}

// Get returns the executor registered for nodeType, or an error if none is.
func (m *Manager) Get(nodeType string) (engine.Executor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.executors[nodeType]
	if !ok {
		return nil, fmt.Errorf("executor: no executor registered for node type %q", nodeType)
	}
	return e, nil
}

// Types returns the registered node type strings, for diagnostics and the
// workflow-validation pass that checks every node in a graph has a home.
func (m *Manager) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, 0, len(m.executors))
	for t := range m.executors {
		types = append(types, t)
	}
	return types
}

// Has reports whether a node type has a registered executor, used by the
// service API to reject workflow definitions that reference unknown types.
func (m *Manager) Has(nodeType string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.executors[nodeType]
	return ok
}
