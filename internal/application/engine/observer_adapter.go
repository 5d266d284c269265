package engine

import (
	"context"

	"github.com/smilemakc/mbflow/go/internal/application/observer"
	pkgengine "github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// observerAdapter satisfies pkg/engine.ObserverManager by fanning engine
// events out to the richer application-level observer.ObserverManager (the
// one HTTP/webhook observers register against), translating between the two
// Event shapes.
type observerAdapter struct {
	mgr *observer.ObserverManager
}

// NewObserverAdapter wraps mgr so it can be passed to
// pkg/engine.WithObserverManager. A nil mgr yields a no-op adapter.
func NewObserverAdapter(mgr *observer.ObserverManager) pkgengine.ObserverManager {
	return &observerAdapter{mgr: mgr}
}

func (a *observerAdapter) Notify(ctx context.Context, event pkgengine.Event) error {
	if a.mgr == nil {
		return nil
	}
	a.mgr.Notify(ctx, translateEvent(event))
	return nil
}

func (a *observerAdapter) Register(obs pkgengine.Observer) error {
	if a.mgr == nil {
		return nil
	}
	return a.mgr.Register(&observerBridge{delegate: obs})
}

func (a *observerAdapter) Unregister(name string) error {
	if a.mgr == nil {
		return nil
	}
	return a.mgr.Unregister(name)
}

func (a *observerAdapter) Count() int {
	if a.mgr == nil {
		return 0
	}
	return a.mgr.Count()
}

var engineToAppEventType = map[pkgengine.EventType]observer.EventType{
	pkgengine.EventExecutionStarted:   observer.EventTypeExecutionStarted,
	pkgengine.EventExecutionCompleted: observer.EventTypeExecutionCompleted,
	pkgengine.EventExecutionFailed:    observer.EventTypeExecutionFailed,
	pkgengine.EventNodeStarted:        observer.EventTypeNodeStarted,
	pkgengine.EventNodeCompleted:      observer.EventTypeNodeCompleted,
	pkgengine.EventNodeSkipped:        observer.EventTypeNodeSkipped,
	pkgengine.EventNodeErrored:        observer.EventTypeNodeFailed,
}

func translateEvent(e pkgengine.Event) observer.Event {
	out := observer.Event{
		Type:        engineToAppEventType[e.Type],
		ExecutionID: e.ExecutionID,
		WorkflowID:  e.WorkflowID,
		Status:      string(e.Status),
		Metadata:    e.Metadata,
	}
	if e.NodeID != "" {
		nodeID := e.NodeID
		out.NodeID = &nodeID
	}
	if e.Error != "" {
		out.Message = &e.Error
	}
	return out
}

// observerBridge adapts a pkg/engine.Observer so it can be registered with
// the application-level observer.ObserverManager; it admits every event.
type observerBridge struct {
	delegate pkgengine.Observer
}

func (b *observerBridge) Name() string { return b.delegate.Name() }

func (b *observerBridge) Filter() observer.EventFilter { return nil }

func (b *observerBridge) OnEvent(ctx context.Context, event observer.Event) error {
	var nodeID string
	if event.NodeID != nil {
		nodeID = *event.NodeID
	}
	var errMsg string
	if event.Error != nil {
		errMsg = event.Error.Error()
	}
	return b.delegate.OnEvent(ctx, pkgengine.Event{
		Type:        pkgengine.EventType(event.Type),
		ExecutionID: event.ExecutionID,
		WorkflowID:  event.WorkflowID,
		NodeID:      nodeID,
		Status:      models.NodeExecutionStatus(event.Status),
		Error:       errMsg,
		Metadata:    event.Metadata,
	})
}
