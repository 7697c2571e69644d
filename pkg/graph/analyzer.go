// Package graph checks whole-blueprint invariants the per-node validator
// cannot see: edge integrity, handle wiring, reachability, cycles and an
// advisory complexity score.
package graph

import (
	"fmt"
	"strings"

	"github.com/waflow/waflow/pkg/library"
	"github.com/waflow/waflow/pkg/models"
)

// Weights drive the advisory complexity score. The values are heuristic;
// callers should treat them as tunable rather than normative.
type Weights struct {
	NodeWeight      int
	NodeCap         int
	EdgeWeight      int
	EdgeCap         int
	ConditionalCost int
	LoopCost        int
	Cap             int
}

// DefaultWeights returns the stock complexity weights.
func DefaultWeights() Weights {
	return Weights{
		NodeWeight:      2,
		NodeCap:         40,
		EdgeWeight:      1,
		EdgeCap:         20,
		ConditionalCost: 5,
		LoopCost:        10,
		Cap:             100,
	}
}

// Config tunes the analyzer's node-type classifications and thresholds.
type Config struct {
	Weights Weights

	// LoopTypes lists node types whose back-edges are intentional.
	LoopTypes []string

	// TerminalTypes lists reply-capable node types that legitimately end a
	// path without an outgoing edge.
	TerminalTypes []string

	// OutboundTypes lists node types that produce an externally visible
	// effect other than a reply.
	OutboundTypes []string

	// ComplexityNodeThreshold is the node count above which a
	// simplify-this-workflow warning is raised.
	ComplexityNodeThreshold int
}

// DefaultConfig returns the stock classification for the WhatsApp catalog.
func DefaultConfig() Config {
	return Config{
		Weights:                 DefaultWeights(),
		LoopTypes:               []string{"loop"},
		TerminalTypes:           []string{"whatsapp_reply", "send_template", "handoff_agent"},
		OutboundTypes:           []string{"http_request", "shopify", "paystack", "openai_completion"},
		ComplexityNodeThreshold: 50,
	}
}

// Analyzer performs structural analysis of blueprint graphs. Stateless and
// safe for concurrent use.
type Analyzer struct {
	library *library.Library
	config  Config
}

// NewAnalyzer creates an analyzer with the default configuration.
func NewAnalyzer(lib *library.Library) *Analyzer {
	return NewAnalyzerWithConfig(lib, DefaultConfig())
}

// NewAnalyzerWithConfig creates an analyzer with custom weights and
// type classifications.
func NewAnalyzerWithConfig(lib *library.Library, config Config) *Analyzer {
	return &Analyzer{
		library: lib,
		config:  config,
	}
}

// Analyze runs every structural check and returns the combined result.
// Errors are collected exhaustively; warnings never affect validity.
func (a *Analyzer) Analyze(bp *models.Blueprint) *models.ValidationResult {
	result := models.NewValidationResult()

	nodeIDs := a.checkNodeIDs(bp, result)
	a.checkEdges(bp, nodeIDs, result)
	a.checkTriggers(bp, result)
	a.checkDeadEnds(bp, result)
	a.checkReachability(bp, nodeIDs, result)
	a.checkCycles(bp, nodeIDs, result)

	if len(bp.Nodes) > a.config.ComplexityNodeThreshold {
		result.AddWarning(
			models.CodeHighComplexity,
			fmt.Sprintf("blueprint has %d nodes (score %d); consider splitting it into smaller workflows",
				len(bp.Nodes), a.ComplexityScore(bp)),
			"", "",
		)
	}

	return result
}

// IsExecutable is the narrow pre-flight gate used before handing a
// blueprint to the execution engine: non-empty, has a trigger, and has at
// least one node with an externally visible effect.
func (a *Analyzer) IsExecutable(bp *models.Blueprint) bool {
	if len(bp.Nodes) == 0 {
		return false
	}

	hasTrigger := false
	hasEffect := false

	for _, node := range bp.Nodes {
		if def, ok := a.library.Get(node.Type); ok && def.IsTrigger() {
			hasTrigger = true
		}

		if a.isTerminal(node.Type) || a.isOutbound(node.Type) {
			hasEffect = true
		}
	}

	return hasTrigger && hasEffect
}

// ComplexityScore computes the advisory 0-100 score: capped node and edge
// contributions plus a fixed increment per conditional and per loop node.
func (a *Analyzer) ComplexityScore(bp *models.Blueprint) int {
	w := a.config.Weights

	score := min(len(bp.Nodes)*w.NodeWeight, w.NodeCap)
	score += min(len(bp.Edges)*w.EdgeWeight, w.EdgeCap)

	for _, node := range bp.Nodes {
		if def, ok := a.library.Get(node.Type); ok && def.Category == models.CategoryCondition {
			score += w.ConditionalCost
		}

		if a.isLoop(node.Type) {
			score += w.LoopCost
		}
	}

	return min(score, w.Cap)
}

func (a *Analyzer) checkNodeIDs(bp *models.Blueprint, result *models.ValidationResult) map[string]bool {
	ids := make(map[string]bool, len(bp.Nodes))

	for _, node := range bp.Nodes {
		if ids[node.ID] {
			result.AddError(
				models.CodeDuplicateNodeID,
				fmt.Sprintf("node id %q is used more than once", node.ID),
				node.ID, "",
			)

			continue
		}

		ids[node.ID] = true
	}

	return ids
}

// checkEdges verifies referential integrity and handle wiring. An edge
// leaving a node that declares output handles must carry a sourceHandle
// from the declared set.
func (a *Analyzer) checkEdges(bp *models.Blueprint, nodeIDs map[string]bool, result *models.ValidationResult) {
	for _, edge := range bp.Edges {
		if !nodeIDs[edge.Source] {
			result.AddError(
				models.CodeInvalidEdge,
				fmt.Sprintf("edge %q references unknown source node %q", edge.ID, edge.Source),
				edge.Source, "",
			)

			continue
		}

		if !nodeIDs[edge.Target] {
			result.AddError(
				models.CodeInvalidEdge,
				fmt.Sprintf("edge %q references unknown target node %q", edge.ID, edge.Target),
				edge.Target, "",
			)

			continue
		}

		source := bp.Node(edge.Source)

		def, ok := a.library.Get(source.Type)
		if !ok || len(def.Outputs) == 0 {
			continue
		}

		if edge.SourceHandle == "" {
			result.AddWarning(
				models.CodeMissingHandle,
				fmt.Sprintf("edge %q leaves node %q without a source handle (expected one of: %s)",
					edge.ID, edge.Source, strings.Join(def.Outputs, ", ")),
				edge.Source, "",
			)

			continue
		}

		if !def.HasOutput(edge.SourceHandle) {
			result.AddError(
				models.CodeInvalidHandle,
				fmt.Sprintf("edge %q uses handle %q which node type %q does not declare (expected one of: %s)",
					edge.ID, edge.SourceHandle, source.Type, strings.Join(def.Outputs, ", ")),
				edge.Source, "",
			)
		}
	}
}

// checkTriggers warns on zero or multiple trigger nodes. A blueprint under
// construction is legitimately triggerless, so this is never an error.
func (a *Analyzer) checkTriggers(bp *models.Blueprint, result *models.ValidationResult) {
	count := 0

	for _, node := range bp.Nodes {
		if def, ok := a.library.Get(node.Type); ok && def.IsTrigger() {
			count++
		}
	}

	switch {
	case count == 0 && len(bp.Nodes) > 0:
		result.AddWarning(models.CodeNoTrigger, "blueprint has no trigger node and cannot start on its own", "", "")
	case count > 1:
		result.AddWarning(models.CodeMultipleTriggers,
			fmt.Sprintf("blueprint has %d trigger nodes; only one should be active", count), "", "")
	}
}

func (a *Analyzer) checkDeadEnds(bp *models.Blueprint, result *models.ValidationResult) {
	hasOutgoing := make(map[string]bool, len(bp.Nodes))
	for _, edge := range bp.Edges {
		hasOutgoing[edge.Source] = true
	}

	for _, node := range bp.Nodes {
		if hasOutgoing[node.ID] || a.isTerminal(node.Type) {
			continue
		}

		result.AddWarning(
			models.CodeDeadEnd,
			fmt.Sprintf("node %q has no outgoing connection and does not reply; the conversation stops here", node.ID),
			node.ID, "",
		)
	}
}

// checkReachability flags nodes no path from a trigger can reach. Skipped
// entirely when the blueprint has no trigger, since everything would be
// unreachable and the NO_TRIGGER warning already covers that state.
func (a *Analyzer) checkReachability(bp *models.Blueprint, nodeIDs map[string]bool, result *models.ValidationResult) {
	adjacency := a.adjacency(bp, nodeIDs)

	var queue []string

	for _, node := range bp.Nodes {
		if def, ok := a.library.Get(node.Type); ok && def.IsTrigger() {
			queue = append(queue, node.ID)
		}
	}

	if len(queue) == 0 {
		return
	}

	visited := make(map[string]bool, len(bp.Nodes))
	for _, id := range queue {
		visited[id] = true
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, node := range bp.Nodes {
		if !visited[node.ID] {
			result.AddWarning(
				models.CodeUnreachableNode,
				fmt.Sprintf("node %q is not reachable from any trigger", node.ID),
				node.ID, "",
			)
		}
	}
}

// checkCycles detects cycles with an iterative three-color DFS. A cycle is
// tolerated when it passes through a loop node; anything else is an
// unbounded cycle and an error.
func (a *Analyzer) checkCycles(bp *models.Blueprint, nodeIDs map[string]bool, result *models.ValidationResult) {
	adjacency := a.adjacency(bp, nodeIDs)

	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(bp.Nodes))
	reported := make(map[string]bool)

	var visit func(id string, stack []string)

	visit = func(id string, stack []string) {
		color[id] = gray
		stack = append(stack, id)

		for _, next := range adjacency[id] {
			switch color[next] {
			case white:
				visit(next, stack)
			case gray:
				cycle := extractCycle(stack, next)
				key := strings.Join(cycle, "->")

				if !reported[key] && !a.cycleHasLoopNode(bp, cycle) {
					reported[key] = true
					result.AddError(
						models.CodeCircularDependency,
						fmt.Sprintf("cycle detected without a loop node: %s", strings.Join(cycle, " -> ")),
						next, "",
					)
				}
			}
		}

		color[id] = black
	}

	for _, node := range bp.Nodes {
		if color[node.ID] == white {
			visit(node.ID, nil)
		}
	}
}

func (a *Analyzer) adjacency(bp *models.Blueprint, nodeIDs map[string]bool) map[string][]string {
	adjacency := make(map[string][]string, len(bp.Nodes))

	for _, edge := range bp.Edges {
		if nodeIDs[edge.Source] && nodeIDs[edge.Target] {
			adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		}
	}

	return adjacency
}

func (a *Analyzer) cycleHasLoopNode(bp *models.Blueprint, cycle []string) bool {
	for _, id := range cycle {
		if node := bp.Node(id); node != nil && a.isLoop(node.Type) {
			return true
		}
	}

	return false
}

func (a *Analyzer) isLoop(nodeType string) bool {
	return contains(a.config.LoopTypes, nodeType)
}

func (a *Analyzer) isTerminal(nodeType string) bool {
	return contains(a.config.TerminalTypes, nodeType)
}

func (a *Analyzer) isOutbound(nodeType string) bool {
	return contains(a.config.OutboundTypes, nodeType)
}

// extractCycle returns the portion of the DFS stack from the re-entered
// node to the top, i.e. the nodes that form the cycle.
func extractCycle(stack []string, entry string) []string {
	for i, id := range stack {
		if id == entry {
			cycle := make([]string, len(stack)-i)
			copy(cycle, stack[i:])

			return cycle
		}
	}

	return []string{entry}
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}

	return false
}
