// Package models defines the core domain models for blueprint compilation and validation.
package models

// Category represents the behavioral category of a node type.
type Category string

const (
	CategoryTrigger     Category = "trigger"     // Entry points (whatsapp_trigger, keyword_trigger, ...)
	CategoryAction      Category = "action"      // Externally visible effects (whatsapp_reply, http_request, ...)
	CategoryCondition   Category = "condition"   // Branching nodes (conditional, switch)
	CategoryIntegration Category = "integration" // Third-party integrations (shopify, paystack, ...)
	CategoryUtility     Category = "utility"     // Flow utilities (set_variable, loop, delay, ...)
)

// FieldType enumerates the declared types an input field may carry.
type FieldType string

const (
	FieldTypeString      FieldType = "string"
	FieldTypeNumber      FieldType = "number"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeJSON        FieldType = "json"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
)

// ValidationRule constrains an input field value beyond its declared type.
// Min/Max apply to the numeric value for number fields and to the string
// length for string fields. Pattern is an anchored-as-written regular
// expression. Message, when set, replaces the generated default.
type ValidationRule struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Message string   `json:"message,omitempty"`
}

// InputField describes one configuration field declared by a node type.
type InputField struct {
	Name       string           `json:"name"                 validate:"required"`
	Label      string           `json:"label,omitempty"`
	Type       FieldType        `json:"type"                 validate:"required"`
	Required   bool             `json:"required"`
	Options    []string         `json:"options,omitempty"`    // For select/multiselect
	Validation []ValidationRule `json:"validation,omitempty"`
}

// DisplayLabel returns the human-readable label for the field, falling back
// to the field name when no label was declared in the catalog.
func (f *InputField) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}

	return f.Name
}

// NodeDefinition is a static catalog entry describing one node type. Loaded
// once at startup and immutable thereafter.
type NodeDefinition struct {
	Type        string       `json:"type"                  validate:"required"`
	Category    Category     `json:"category"              validate:"required,oneof=trigger action condition integration utility"`
	Description string       `json:"description,omitempty"`
	Inputs      []InputField `json:"inputs"`
	Outputs     []string     `json:"outputs,omitempty"` // Named output handles (e.g. true/false, item/done)
}

// IsTrigger reports whether the definition belongs to the trigger category.
func (d *NodeDefinition) IsTrigger() bool {
	return d.Category == CategoryTrigger
}

// Input returns the declared input field with the given name.
func (d *NodeDefinition) Input(name string) (*InputField, bool) {
	for i := range d.Inputs {
		if d.Inputs[i].Name == name {
			return &d.Inputs[i], true
		}
	}

	return nil, false
}

// HasOutput reports whether the definition declares the given output handle.
func (d *NodeDefinition) HasOutput(handle string) bool {
	for _, h := range d.Outputs {
		if h == handle {
			return true
		}
	}

	return false
}
