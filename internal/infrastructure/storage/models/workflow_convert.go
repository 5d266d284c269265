package models

import (
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// knownChannels lists the Channel constants an EdgeModel.SourceHandle might
// legitimately carry; anything else (conditional branch labels such as
// "true"/"false", or no handle at all) collapses onto ChannelMain, matching
// the engine's single-stored-output convention for if/switch branching (see
// pkg/executor/builtin/conditional.go): both branches target the same main
// output, so the edge table's branch label carries no information the engine
// needs at run time.
var knownChannels = map[string]models.Channel{
	string(models.ChannelAILanguageModel): models.ChannelAILanguageModel,
	string(models.ChannelAIMemory):        models.ChannelAIMemory,
	string(models.ChannelAITool):           models.ChannelAITool,
	string(models.ChannelAIEmbedding):      models.ChannelAIEmbedding,
	string(models.ChannelAITextSplitter):   models.ChannelAITextSplitter,
	string(models.ChannelAIVectorStore):    models.ChannelAIVectorStore,
	string(models.ChannelAIDocument):       models.ChannelAIDocument,
}

func edgeChannel(sourceHandle string) models.Channel {
	if ch, ok := knownChannels[sourceHandle]; ok {
		return ch
	}
	return models.ChannelMain
}

// WorkflowModelToDomain converts a storage WorkflowModel (with its Nodes and
// Edges relations preloaded) into the pkg/models.Workflow the execution
// engine runs. NodeModel.NodeID (the logical, update-stable identity used by
// workflow_repository.go's syncNodes/syncEdges) becomes the domain Node's
// Name, which is also the ConnectionMap key and the $('Name') expression
// reference.
func WorkflowModelToDomain(wm *WorkflowModel) *models.Workflow {
	if wm == nil {
		return nil
	}

	w := &models.Workflow{
		ID:          wm.ID.String(),
		Name:        wm.Name,
		Description: wm.Description,
		Status:      models.WorkflowStatus(wm.Status),
		Variables:   map[string]any(wm.Variables),
		Metadata:    map[string]any(wm.Metadata),
		CreatedAt:   wm.CreatedAt,
		UpdatedAt:   wm.UpdatedAt,
		Connections: make(models.ConnectionMap),
	}
	if wm.CreatedBy != nil {
		w.CreatedBy = wm.CreatedBy.String()
	}

	w.Nodes = make([]*models.Node, 0, len(wm.Nodes))
	for _, nm := range wm.Nodes {
		node := &models.Node{
			ID:         nm.ID.String(),
			Name:       nm.NodeID,
			Type:       nm.Type,
			Parameters: map[string]any(nm.Config),
		}
		if x, ok := nm.Position["x"].(float64); ok {
			if y, ok := nm.Position["y"].(float64); ok {
				node.Position = &models.NodePosition{X: x, Y: y}
			}
		}
		w.Nodes = append(w.Nodes, node)
	}

	for _, em := range wm.Edges {
		channel := edgeChannel(em.SourceHandle)
		w.Connections.AddConnection(em.FromNodeID, channel, 0, models.ConnectionRecord{Node: em.ToNodeID})
	}

	return w
}
