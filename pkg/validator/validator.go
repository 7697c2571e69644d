// Package validator checks blueprint nodes against their catalog
// definitions and aggregates per-node results with graph-level analysis.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/waflow/waflow/pkg/graph"
	"github.com/waflow/waflow/pkg/injector"
	"github.com/waflow/waflow/pkg/library"
	"github.com/waflow/waflow/pkg/models"
)

// Validator performs field-level validation of blueprint nodes. Shape
// errors are collected exhaustively so one call surfaces the complete
// defect list.
type Validator struct {
	library  *library.Library
	analyzer *graph.Analyzer
}

// New creates a validator backed by the given node library.
func New(lib *library.Library) *Validator {
	return &Validator{
		library:  lib,
		analyzer: graph.NewAnalyzer(lib),
	}
}

// Analyzer exposes the structural analyzer built for this validator.
func (v *Validator) Analyzer() *graph.Analyzer {
	return v.analyzer
}

// ValidateBlueprint runs per-node shape validation plus whole-graph
// structural analysis and merges both layers into one result. The
// blueprint is valid iff neither layer reports an error.
func (v *Validator) ValidateBlueprint(bp *models.Blueprint) *models.ValidationResult {
	result := v.ValidateNodes(bp)
	result.Merge(v.analyzer.Analyze(bp))

	return result
}

// ValidateNodes validates every node in the blueprint against its catalog
// definition, without graph-level checks.
func (v *Validator) ValidateNodes(bp *models.Blueprint) *models.ValidationResult {
	result := models.NewValidationResult()

	for _, node := range bp.Nodes {
		result.Merge(v.ValidateNode(node))
	}

	return result
}

// ValidateNode validates a single node. An unknown node type short-circuits
// the remaining field checks for that node; everything else is collected
// exhaustively.
func (v *Validator) ValidateNode(node *models.BlueprintNode) *models.ValidationResult {
	result := models.NewValidationResult()

	def, ok := v.library.Get(node.Type)
	if !ok {
		result.AddError(
			models.CodeUnknownNodeType,
			fmt.Sprintf("unknown node type %q", node.Type),
			node.ID, "",
		)

		return result
	}

	for i := range def.Inputs {
		v.validateField(node, &def.Inputs[i], result)
	}

	return result
}

func (v *Validator) validateField(node *models.BlueprintNode, field *models.InputField, result *models.ValidationResult) {
	value, present := node.Config[field.Name]

	if !present || value == nil {
		if field.Required {
			result.AddError(
				models.CodeMissingRequiredField,
				fmt.Sprintf("required field %q is missing", field.DisplayLabel()),
				node.ID, field.Name,
			)
		}

		return
	}

	// Values still carrying {{...}} tokens are exempt from type and rule
	// checks; their resolved type is unknown until injection time.
	if s, isString := value.(string); isString && injector.ContainsToken(s) {
		return
	}

	if !v.checkType(node, field, value, result) {
		return
	}

	v.checkRules(node, field, value, result)
	v.checkOptions(node, field, value, result)
}

// checkType verifies the runtime shape of a config value against the
// field's declared type. Returns false when a type error was recorded, in
// which case rule and option checks are skipped for the field.
func (v *Validator) checkType(node *models.BlueprintNode, field *models.InputField, value any, result *models.ValidationResult) bool {
	ok := true

	switch field.Type {
	case models.FieldTypeString, models.FieldTypeSelect:
		_, ok = value.(string)
	case models.FieldTypeNumber:
		_, ok = asNumber(value)
	case models.FieldTypeBoolean:
		_, ok = value.(bool)
	case models.FieldTypeJSON:
		switch value.(type) {
		case map[string]any, []any:
		default:
			ok = false
		}
	case models.FieldTypeMultiSelect:
		_, ok = asStringSlice(value)
	}

	if !ok {
		result.AddError(
			models.CodeInvalidType,
			fmt.Sprintf("field %q must be of type %s", field.DisplayLabel(), field.Type),
			node.ID, field.Name,
		)
	}

	return ok
}

// checkRules applies declared min/max and pattern rules. Min/max constrain
// the numeric value for number fields and the length for string fields.
func (v *Validator) checkRules(node *models.BlueprintNode, field *models.InputField, value any, result *models.ValidationResult) {
	for _, rule := range field.Validation {
		switch typed := value.(type) {
		case string:
			v.checkStringRule(node, field, typed, rule, result)
		default:
			if num, ok := asNumber(value); ok {
				v.checkNumberRule(node, field, num, rule, result)
			}
		}
	}
}

func (v *Validator) checkStringRule(node *models.BlueprintNode, field *models.InputField, value string, rule models.ValidationRule, result *models.ValidationResult) {
	length := float64(len(value))

	if rule.Min != nil && length < *rule.Min {
		result.AddError(
			models.CodeValidationFailed,
			ruleMessage(rule, fmt.Sprintf("field %q must be at least %v characters", field.DisplayLabel(), *rule.Min)),
			node.ID, field.Name,
		)
	}

	if rule.Max != nil && length > *rule.Max {
		result.AddError(
			models.CodeValidationFailed,
			ruleMessage(rule, fmt.Sprintf("field %q must be at most %v characters", field.DisplayLabel(), *rule.Max)),
			node.ID, field.Name,
		)
	}

	if rule.Pattern != "" {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			// A broken pattern is a catalog defect, not a blueprint
			// defect; skip the rule rather than failing the node.
			return
		}

		if !re.MatchString(value) {
			result.AddError(
				models.CodeValidationFailed,
				ruleMessage(rule, fmt.Sprintf("field %q does not match the expected format", field.DisplayLabel())),
				node.ID, field.Name,
			)
		}
	}
}

func (v *Validator) checkNumberRule(node *models.BlueprintNode, field *models.InputField, value float64, rule models.ValidationRule, result *models.ValidationResult) {
	if rule.Min != nil && value < *rule.Min {
		result.AddError(
			models.CodeValidationFailed,
			ruleMessage(rule, fmt.Sprintf("field %q must be at least %v", field.DisplayLabel(), *rule.Min)),
			node.ID, field.Name,
		)
	}

	if rule.Max != nil && value > *rule.Max {
		result.AddError(
			models.CodeValidationFailed,
			ruleMessage(rule, fmt.Sprintf("field %q must be at most %v", field.DisplayLabel(), *rule.Max)),
			node.ID, field.Name,
		)
	}
}

// checkOptions enforces enum membership for select and multiselect fields.
func (v *Validator) checkOptions(node *models.BlueprintNode, field *models.InputField, value any, result *models.ValidationResult) {
	if len(field.Options) == 0 {
		return
	}

	allowed := make(map[string]bool, len(field.Options))
	for _, opt := range field.Options {
		allowed[opt] = true
	}

	var invalid []string

	switch field.Type {
	case models.FieldTypeSelect:
		if s, ok := value.(string); ok && !allowed[s] {
			invalid = append(invalid, s)
		}
	case models.FieldTypeMultiSelect:
		values, _ := asStringSlice(value)
		for _, s := range values {
			if !allowed[s] {
				invalid = append(invalid, s)
			}
		}
	}

	if len(invalid) > 0 {
		result.AddError(
			models.CodeInvalidOption,
			fmt.Sprintf("field %q has invalid option(s): %s (allowed: %s)",
				field.DisplayLabel(), strings.Join(invalid, ", "), strings.Join(field.Options, ", ")),
			node.ID, field.Name,
		)
	}
}

func ruleMessage(rule models.ValidationRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}

	return fallback
}

// asNumber accepts the numeric shapes JSON decoding and Go callers produce.
func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asStringSlice(value any) ([]string, bool) {
	switch s := value.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))

		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}

			out = append(out, str)
		}

		return out, true
	default:
		return nil, false
	}
}
