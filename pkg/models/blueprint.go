package models

import "time"

// BlueprintNode is a node instance inside a blueprint graph. Config maps
// input-field names to values; values may contain {{token}} placeholders
// that are resolved at injection time.
type BlueprintNode struct {
	ID     string         `json:"id"             validate:"required"`
	Type   string         `json:"type"           validate:"required"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config"`
}

// Edge is a directed connection between two nodes. SourceHandle must name
// one of the source node's declared output handles when the source type
// declares any.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// CredentialRef declares that a blueprint depends on a stored credential
// for an external service. Only the reference travels with the blueprint;
// the secret itself never does.
type CredentialRef struct {
	Service      string `json:"service"       validate:"required"`
	CredentialID string `json:"credential_id" validate:"required"`
}

// Blueprint is a complete declarative workflow graph for one bot.
type Blueprint struct {
	ID          string           `json:"id,omitempty"`
	BotID       string           `json:"bot_id"                validate:"required"`
	Version     string           `json:"version"`
	Name        string           `json:"name"                  validate:"required,min=3"`
	Description string           `json:"description,omitempty"`
	Nodes       []*BlueprintNode `json:"nodes"`
	Edges       []*Edge          `json:"edges"`
	Variables   map[string]string `json:"variables,omitempty"` // Declared variable names → type, informational
	Credentials []CredentialRef  `json:"credentials,omitempty"`
	CreatedAt   time.Time        `json:"created_at,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at,omitempty"`
}

// Node returns the node with the given id, or nil when absent.
func (b *Blueprint) Node(id string) *BlueprintNode {
	for _, n := range b.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// NodeIDs returns the set of node ids present in the blueprint.
func (b *Blueprint) NodeIDs() map[string]bool {
	ids := make(map[string]bool, len(b.Nodes))
	for _, n := range b.Nodes {
		ids[n.ID] = true
	}

	return ids
}
