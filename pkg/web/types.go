// Package web provides HTTP request and response types for the blueprint API.
package web

import (
	"github.com/waflow/waflow/pkg/advisor"
	"github.com/waflow/waflow/pkg/models"
)

// ValidateBlueprintResponse carries the compile outcome plus the binary
// executability gate.
type ValidateBlueprintResponse struct {
	Result     *models.ValidationResult `json:"result"`
	Executable bool                     `json:"executable"`
	Complexity int                      `json:"complexity"`
}

// RecommendRequest asks for node-type suggestions for one action phrase.
type RecommendRequest struct {
	Action           string `json:"action"                       validate:"required,min=3"`
	Integration      string `json:"integration,omitempty"`
	PreviousNodeType string `json:"previous_node_type,omitempty"`
}

// RecommendResponse carries the ranked suggestions.
type RecommendResponse struct {
	Recommendations []advisor.Recommendation `json:"recommendations"`
}

// PrepareRequest carries the injection context for execution preparation.
type PrepareRequest struct {
	Context models.InjectionContext `json:"context"`
}

// SelectionRequest asks for a sanity pass over a proposed node-type set.
type SelectionRequest struct {
	NodeTypes []string `json:"node_types" validate:"required,min=1"`
}
