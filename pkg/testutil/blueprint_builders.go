// Package testutil provides test data builders for blueprint tests.
package testutil

import (
	"github.com/waflow/waflow/pkg/models"
)

// CreateTestNode creates a BlueprintNode with default values that can be
// overridden.
func CreateTestNode(overrides ...func(*models.BlueprintNode)) *models.BlueprintNode {
	node := &models.BlueprintNode{
		ID:   "1",
		Type: "whatsapp_reply",
		Name: "Test Reply",
		Config: map[string]any{
			"message": "hello",
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.BlueprintNode) {
	return func(n *models.BlueprintNode) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.BlueprintNode) {
	return func(n *models.BlueprintNode) {
		n.Type = nodeType
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.BlueprintNode) {
	return func(n *models.BlueprintNode) {
		n.Config = config
	}
}

// CreateTestBlueprint creates a minimal valid, executable blueprint: a
// whatsapp_trigger wired to a whatsapp_reply.
func CreateTestBlueprint(overrides ...func(*models.Blueprint)) *models.Blueprint {
	bp := &models.Blueprint{
		BotID:   "bot-1",
		Version: "1",
		Name:    "Test Blueprint",
		Nodes: []*models.BlueprintNode{
			CreateTestNode(WithID("1"), WithType("whatsapp_trigger"), WithConfig(map[string]any{})),
			CreateTestNode(WithID("2")),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "1", Target: "2"},
		},
	}

	for _, override := range overrides {
		override(bp)
	}

	return bp
}

// WithNodes replaces the blueprint's nodes.
func WithNodes(nodes ...*models.BlueprintNode) func(*models.Blueprint) {
	return func(bp *models.Blueprint) {
		bp.Nodes = nodes
	}
}

// WithEdges replaces the blueprint's edges.
func WithEdges(edges ...*models.Edge) func(*models.Blueprint) {
	return func(bp *models.Blueprint) {
		bp.Edges = edges
	}
}

// CreateTestInjectionContext creates an injection context with a small
// user/bot variable tree and one credential handle.
func CreateTestInjectionContext() *models.InjectionContext {
	return &models.InjectionContext{
		Variables: models.Namespaces{
			Bot: map[string]any{
				"name": "Support Bot",
			},
			User: map[string]any{
				"name":  "Thandi",
				"phone": "+27820000000",
			},
			Conversation: map[string]any{
				"id": "conv-42",
			},
			Custom: map[string]any{
				"order_total": 129.5,
			},
		},
		Credentials: map[string]string{
			"shopify": "cred-handle-001",
		},
	}
}
