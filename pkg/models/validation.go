package models

// ErrorCode identifies a machine-readable validation or injection fault.
type ErrorCode string

const (
	// Node-level shape errors.
	CodeUnknownNodeType      ErrorCode = "UNKNOWN_NODE_TYPE"
	CodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	CodeInvalidType          ErrorCode = "INVALID_TYPE"
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	CodeInvalidOption        ErrorCode = "INVALID_OPTION"

	// Graph-level errors.
	CodeInvalidEdge        ErrorCode = "INVALID_EDGE"
	CodeInvalidHandle      ErrorCode = "INVALID_HANDLE"
	CodeDuplicateNodeID    ErrorCode = "DUPLICATE_NODE_ID"
	CodeCircularDependency ErrorCode = "CIRCULAR_DEPENDENCY"

	// Injection-time faults. These abort the whole injection pass.
	CodeInvalidVariablePath ErrorCode = "INVALID_VARIABLE_PATH"
	CodeCredentialNotFound  ErrorCode = "CREDENTIAL_NOT_FOUND"

	// Warning codes (advisory, never block validity).
	CodeNoTrigger        ErrorCode = "NO_TRIGGER"
	CodeMultipleTriggers ErrorCode = "MULTIPLE_TRIGGERS"
	CodeDeadEnd          ErrorCode = "DEAD_END"
	CodeUnreachableNode  ErrorCode = "UNREACHABLE_NODE"
	CodeMissingHandle    ErrorCode = "MISSING_HANDLE"
	CodeHighComplexity   ErrorCode = "HIGH_COMPLEXITY"
)

// ValidationError is a blocking defect found in a blueprint.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	NodeID  string    `json:"node_id,omitempty"`
	Field   string    `json:"field,omitempty"`
}

// ValidationWarning is an advisory finding. Warnings never affect validity.
type ValidationWarning struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	NodeID  string    `json:"node_id,omitempty"`
	Field   string    `json:"field,omitempty"`
}

// ValidationResult aggregates the outcome of one validation pass. Valid is
// true iff Errors is empty; warnings accumulate without blocking.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// NewValidationResult returns an empty, valid result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

// AddError records a blocking error and marks the result invalid.
func (r *ValidationResult) AddError(code ErrorCode, message, nodeID, field string) {
	r.Errors = append(r.Errors, ValidationError{
		Code:    code,
		Message: message,
		NodeID:  nodeID,
		Field:   field,
	})
	r.Valid = false
}

// AddWarning records an advisory finding.
func (r *ValidationResult) AddWarning(code ErrorCode, message, nodeID, field string) {
	r.Warnings = append(r.Warnings, ValidationWarning{
		Code:    code,
		Message: message,
		NodeID:  nodeID,
		Field:   field,
	})
}

// Merge folds another result into this one. Validity is recomputed from the
// combined error list.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}

	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = len(r.Errors) == 0
}

// ErrorsForNode returns the errors recorded against the given node id.
func (r *ValidationResult) ErrorsForNode(nodeID string) []ValidationError {
	var out []ValidationError

	for _, e := range r.Errors {
		if e.NodeID == nodeID {
			out = append(out, e)
		}
	}

	return out
}
