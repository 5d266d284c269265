package builtin

import "github.com/smilemakc/mbflow/go/pkg/executor"

// RegisterBuiltins registers every built-in executor with manager. Hosts
// that embed this engine call it once at startup; a plugin loaded later can
// still override any of these by registering its own Type() under the same
// name.
func RegisterBuiltins(manager *executor.Manager) error {
	manager.Register(NewHTTPRequestExecutor())
	manager.Register(NewTransformExecutor())
	manager.Register(NewSetExecutor())
	manager.Register(NewLLMExecutor())
	manager.Register(NewAgentExecutor())
	manager.Register(NewTelegramExecutor())
	manager.Register(NewCodeExecutor())
	manager.Register(NewIfExecutor())
	manager.Register(NewSwitchExecutor())
	manager.Register(NewMergeExecutor())
	manager.Register(NewSplitInBatchesExecutor())
	manager.Register(NewWaitExecutor())
	manager.Register(NewCSVToJSONExecutor())
	manager.Register(NewHTMLCleanExecutor())
	manager.Register(NewGoogleSheetsExecutor())
	manager.Register(NewManualExecutor())
	manager.Register(NewScheduleExecutor())
	manager.Register(NewWebhookExecutor())
	manager.Register(NewStickyNoteExecutor())
	return nil
}

// RegisterAdapters registers the format-conversion executors (bytes<->JSON)
// that sit between binary-producing nodes and nodes that expect structured
// data.
func RegisterAdapters(manager *executor.Manager) error {
	manager.Register(NewBytesToJSONExecutor())
	manager.Register(NewJSONToBytesExecutor())
	return nil
}
