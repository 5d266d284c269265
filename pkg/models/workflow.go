package models

import (
	"fmt"
	"time"
)

// WorkflowStatus is the lifecycle state of a stored workflow, independent of
// any single execution's outcome.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusArchived WorkflowStatus = "archived"
)

// Workflow is a named directed graph of nodes connected by typed channels.
// It is treated as immutable during an execution: the engine deep-copies it
// into an execution context and never mutates the template in place.
//
// Description, Status, Metadata and the timestamps carry no weight for the
// engine itself (Run only reads Nodes/Connections/Variables) — they exist so
// the persistence layer has somewhere to round-trip the fields a workflow
// management API needs.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status,omitempty"`
	Nodes       []*Node        `json:"nodes"`
	Connections ConnectionMap  `json:"connections"`
	Variables   map[string]any `json:"variables,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedBy   string         `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// NodeByKey resolves a node reference by name first, then by id, matching
// the first node found in declaration order. Duplicate names within one
// workflow are not rejected (see DESIGN.md); this is the documented
// first-match-wins behavior.
func (w *Workflow) NodeByKey(key string) (*Node, bool) {
	for _, n := range w.Nodes {
		if n.Name == key {
			return n, true
		}
	}
	for _, n := range w.Nodes {
		if n.ID == key {
			return n, true
		}
	}
	return nil, false
}

// Clone deep-copies the workflow so template preparation and token
// injection can rewrite parameters without touching the stored template.
func (w *Workflow) Clone() *Workflow {
	clone := &Workflow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Status:      w.Status,
		Nodes:       make([]*Node, len(w.Nodes)),
		Connections: make(ConnectionMap, len(w.Connections)),
		Variables:   cloneAny(w.Variables).(map[string]any),
		Metadata:    w.Metadata,
		CreatedBy:   w.CreatedBy,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	for i, n := range w.Nodes {
		nodeCopy := *n
		nodeCopy.Parameters, _ = cloneAny(n.Parameters).(map[string]any)
		if n.Credentials != nil {
			nodeCopy.Credentials = make(map[string]CredentialRef, len(n.Credentials))
			for k, v := range n.Credentials {
				nodeCopy.Credentials[k] = v
			}
		}
		clone.Nodes[i] = &nodeCopy
	}
	for source, byChannel := range w.Connections {
		cc := make(map[Channel][]OutputSlot, len(byChannel))
		for ch, slots := range byChannel {
			slotsCopy := make([]OutputSlot, len(slots))
			for i, slot := range slots {
				slotCopy := make(OutputSlot, len(slot))
				copy(slotCopy, slot)
				slotsCopy[i] = slotCopy
			}
			cc[ch] = slotsCopy
		}
		clone.Connections[source] = cc
	}
	return clone
}

// cloneAny deep-copies the recursive JSON value shapes used throughout the
// codebase (map[string]any, []any and scalars). It is used instead of a
// marshal/unmarshal round trip so clone does not require values to be
// JSON-serializable (binary attachments, etc.).
func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any{}
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneAny(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneAny(val)
		}
		return out
	default:
		return v
	}
}

// ValidateStructure checks the invariants the engine relies on before it
// will attempt to run a workflow: every connection record must resolve to a
// node that actually exists in the graph.
func (w *Workflow) ValidateStructure() error {
	for source, byChannel := range w.Connections {
		if _, ok := w.NodeByKey(source); !ok {
			return &ValidationError{Field: "connections", Message: fmt.Sprintf("source node %q does not exist", source)}
		}
		for channel, slots := range byChannel {
			for slotIdx, slot := range slots {
				for _, rec := range slot {
					if _, ok := w.NodeByKey(rec.Node); !ok {
						return &ValidationError{
							Field: "connections",
							Message: fmt.Sprintf(
								"edge %s.%s[%d] targets unresolved node %q", source, channel, slotIdx, rec.Node,
							),
						}
					}
				}
			}
		}
	}
	return nil
}
