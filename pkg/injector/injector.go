package injector

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/waflow/waflow/pkg/models"
)

var (
	// ErrInvalidVariablePath signals token path abuse. This is a security
	// boundary: the whole injection pass aborts rather than substituting
	// anything.
	ErrInvalidVariablePath = errors.New("invalid variable path")

	// ErrCredentialNotFound signals a credential reference with no handle
	// in the injection context. Hard failure, never a blank substitution.
	ErrCredentialNotFound = errors.New("credential not found")
)

// InjectionError carries the failing path and machine-readable code for an
// aborted injection pass.
type InjectionError struct {
	Code   models.ErrorCode
	Path   string
	NodeID string
	Err    error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("injection failed at node %q: %v: %s", e.NodeID, e.Err, e.Path)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}

var (
	pathCharset    = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	credentialOnly = regexp.MustCompile(`^\{\{\s*credentials\.([A-Za-z0-9_\-]+)\s*\}\}$`)

	// Keywords blocked anywhere in a path, case-insensitively. Together
	// with the charset, traversal and double-underscore checks this keeps
	// the token syntax from becoming an injection vector.
	blockedKeywords = []string{"constructor", "prototype", "__proto__", "eval", "function"}
)

// Engine resolves {{path}} tokens in blueprint node configuration.
// Stateless apart from its logger; safe for concurrent use.
type Engine struct {
	logger    *slog.Logger
	envLookup func(string) (string, bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for unresolved-token warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEnvLookup replaces the process-environment lookup, mainly for tests.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(e *Engine) {
		e.envLookup = lookup
	}
}

// NewEngine creates a resolution engine.
func NewEngine(opts ...Option) *Engine {
	engine := &Engine{
		logger:    slog.Default(),
		envLookup: os.LookupEnv,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// InjectBlueprint returns a copy of the blueprint with every resolvable
// token substituted. The input is never mutated, so a failing pass leaves
// no partial substitution anywhere. Unresolvable paths stay in place with
// a warning; path abuse and missing credentials abort the whole pass.
func (e *Engine) InjectBlueprint(bp *models.Blueprint, injCtx *models.InjectionContext) (*models.Blueprint, error) {
	clone, err := cloneBlueprint(bp)
	if err != nil {
		return nil, fmt.Errorf("failed to copy blueprint: %w", err)
	}

	for _, node := range clone.Nodes {
		if node.Config == nil {
			continue
		}

		resolved, err := e.resolveValue(node.Config, injCtx, node.ID)
		if err != nil {
			return nil, err
		}

		node.Config = resolved.(map[string]any)
	}

	return clone, nil
}

// InjectNode resolves the tokens of a single node config in place on a
// copy of the node.
func (e *Engine) InjectNode(node *models.BlueprintNode, injCtx *models.InjectionContext) (*models.BlueprintNode, error) {
	bp := &models.Blueprint{Nodes: []*models.BlueprintNode{node}}

	injected, err := e.InjectBlueprint(bp, injCtx)
	if err != nil {
		return nil, err
	}

	return injected.Nodes[0], nil
}

// resolveValue walks a config value tree depth-first, resolving strings
// and recursing into arrays and objects.
func (e *Engine) resolveValue(value any, injCtx *models.InjectionContext, nodeID string) (any, error) {
	switch typed := value.(type) {
	case string:
		return e.resolveString(typed, injCtx, nodeID)
	case map[string]any:
		if handled, out, err := e.resolveCredentialObject(typed, injCtx, nodeID); handled {
			return out, err
		}

		for key, nested := range typed {
			resolved, err := e.resolveValue(nested, injCtx, nodeID)
			if err != nil {
				return nil, err
			}

			typed[key] = resolved
		}

		return typed, nil
	case []any:
		for i, nested := range typed {
			resolved, err := e.resolveValue(nested, injCtx, nodeID)
			if err != nil {
				return nil, err
			}

			typed[i] = resolved
		}

		return typed, nil
	default:
		return value, nil
	}
}

// resolveCredentialObject handles the credential placeholder convention:
// an object whose "id" field is exactly {{credentials.<name>}}. Only the
// id field is replaced with the opaque handle; sibling fields such as a
// display label stay untouched.
func (e *Engine) resolveCredentialObject(obj map[string]any, injCtx *models.InjectionContext, nodeID string) (bool, map[string]any, error) {
	id, ok := obj["id"].(string)
	if !ok {
		return false, nil, nil
	}

	match := credentialOnly.FindStringSubmatch(id)
	if match == nil {
		return false, nil, nil
	}

	name := match[1]

	handle, ok := lookupCredential(injCtx, name)
	if !ok {
		return true, nil, &InjectionError{
			Code:   models.CodeCredentialNotFound,
			Path:   "credentials." + name,
			NodeID: nodeID,
			Err:    ErrCredentialNotFound,
		}
	}

	obj["id"] = handle

	return true, obj, nil
}

func (e *Engine) resolveString(s string, injCtx *models.InjectionContext, nodeID string) (string, error) {
	matches := tokenPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	var out strings.Builder

	last := 0

	for _, m := range matches {
		tokenStart, tokenEnd := m[0], m[1]
		path := strings.TrimSpace(s[m[2]:m[3]])

		if err := validatePath(path, nodeID); err != nil {
			return "", err
		}

		out.WriteString(s[last:tokenStart])

		replacement, err := e.resolvePath(path, injCtx, nodeID)
		if err != nil {
			return "", err
		}

		if replacement == nil {
			// Not found: leave the token visible so a partially
			// configured blueprint remains inspectable.
			e.logger.Warn("unresolved variable token", "path", path, "node_id", nodeID)
			out.WriteString(s[tokenStart:tokenEnd])
		} else {
			out.WriteString(stringify(replacement))
		}

		last = tokenEnd
	}

	out.WriteString(s[last:])

	return out.String(), nil
}

// resolvePath looks a validated path up in the injection context. A nil
// return with nil error means "not found".
func (e *Engine) resolvePath(path string, injCtx *models.InjectionContext, nodeID string) (any, error) {
	segments := strings.Split(path, ".")

	switch segments[0] {
	case "credentials":
		if len(segments) != 2 {
			return nil, &InjectionError{
				Code:   models.CodeInvalidVariablePath,
				Path:   path,
				NodeID: nodeID,
				Err:    ErrInvalidVariablePath,
			}
		}

		handle, ok := lookupCredential(injCtx, segments[1])
		if !ok {
			return nil, &InjectionError{
				Code:   models.CodeCredentialNotFound,
				Path:   path,
				NodeID: nodeID,
				Err:    ErrCredentialNotFound,
			}
		}

		return handle, nil
	case "env":
		if len(segments) < 2 {
			return nil, nil
		}

		if value, ok := e.envLookup(strings.Join(segments[1:], ".")); ok {
			return value, nil
		}

		return nil, nil
	}

	if tree, ok := injCtx.Variables.Tree(segments[0]); ok {
		return walkTree(tree, segments[1:]), nil
	}

	// Unrecognized namespace: linear fallback across all namespaces with
	// the full path treated as relative.
	for _, ns := range models.NamespaceOrder {
		tree, ok := injCtx.Variables.Tree(ns)
		if !ok {
			continue
		}

		if value := walkTree(tree, segments); value != nil {
			return value, nil
		}
	}

	return nil, nil
}

// validatePath enforces the token path syntax before any lookup happens.
func validatePath(path string, nodeID string) error {
	fail := func() error {
		return &InjectionError{
			Code:   models.CodeInvalidVariablePath,
			Path:   path,
			NodeID: nodeID,
			Err:    ErrInvalidVariablePath,
		}
	}

	if path == "" || !pathCharset.MatchString(path) {
		return fail()
	}

	if strings.Contains(path, "..") || strings.Contains(path, "__") {
		return fail()
	}

	lower := strings.ToLower(path)
	for _, keyword := range blockedKeywords {
		if strings.Contains(lower, keyword) {
			return fail()
		}
	}

	return nil
}

// walkTree descends nested maps along the path segments. Any missing
// intermediate key yields nil ("not found").
func walkTree(tree map[string]any, segments []string) any {
	if len(segments) == 0 {
		return nil
	}

	var current any = tree

	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = node[segment]
		if !ok {
			return nil
		}
	}

	return current
}

// stringify coerces a resolved value into its string form. Objects and
// arrays are JSON-encoded; a string token is not a valid place for a
// structured value, but encoding beats dropping data on the floor.
func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}

		return string(encoded)
	}
}

func lookupCredential(injCtx *models.InjectionContext, name string) (string, bool) {
	if injCtx == nil || injCtx.Credentials == nil {
		return "", false
	}

	handle, ok := injCtx.Credentials[name]

	return handle, ok
}

// cloneBlueprint deep-copies via a JSON round trip. Config trees are plain
// JSON values, so this is lossless.
func cloneBlueprint(bp *models.Blueprint) (*models.Blueprint, error) {
	data, err := json.Marshal(bp)
	if err != nil {
		return nil, err
	}

	var clone models.Blueprint
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}

	return &clone, nil
}
