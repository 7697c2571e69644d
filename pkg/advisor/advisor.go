// Package advisor maps free-text action descriptions to ranked node-type
// suggestions and runs advisory workflow-quality checks. Output is never
// authoritative and never blocks blueprint validity.
package advisor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/waflow/waflow/pkg/library"
	"github.com/waflow/waflow/pkg/models"
)

// Recommendation is one ranked node-type suggestion.
type Recommendation struct {
	NodeType   string  `json:"node_type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Context optionally biases recommendations: a matched integration name
// and the node type immediately preceding the insertion point.
type Context struct {
	Integration      string `json:"integration,omitempty"`
	PreviousNodeType string `json:"previous_node_type,omitempty"`
}

// Intent is a structured description of what a node should do, used by
// Score.
type Intent struct {
	SuggestedNodes []string `json:"suggested_nodes,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Integration    string   `json:"integration,omitempty"`
}

// Selection is the outcome of a non-authoritative node-selection sanity
// pass.
type Selection struct {
	Valid       bool     `json:"valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

const (
	patternConfidence  = 0.25
	confidenceCap      = 0.95
	integrationBoost   = 0.20
	precedingBoost     = 0.15
	maxRecommendations = 3

	// Above this many selected nodes, a branch-free workflow is suspect.
	branchThreshold = 5
)

type keywordPattern struct {
	re      *regexp.Regexp
	keyword string
}

// Advisor holds the keyword tables. Built once; safe for concurrent reads.
type Advisor struct {
	library      *library.Library
	patterns     map[string][]keywordPattern
	follows      map[string][]string
	alternatives map[string][]string
}

// New builds an advisor over the given node library. Pattern tables for
// types absent from the library are dropped so suggestions always name
// known types.
func New(lib *library.Library) *Advisor {
	a := &Advisor{
		library:      lib,
		patterns:     make(map[string][]keywordPattern),
		follows:      followTable(),
		alternatives: alternativeTable(),
	}

	for nodeType, keywords := range keywordTable() {
		if !lib.Exists(nodeType) {
			continue
		}

		for _, kw := range keywords {
			a.patterns[nodeType] = append(a.patterns[nodeType], keywordPattern{
				re:      regexp.MustCompile(`(?i)\b` + kw + `\b`),
				keyword: kw,
			})
		}
	}

	return a
}

// keywordTable maps node types to the phrases that suggest them. Multiple
// matches for the same type raise confidence additively.
func keywordTable() map[string][]string {
	return map[string][]string{
		"whatsapp_reply":    {"reply", "respond", "send (a )?message", "answer", "say", "greet"},
		"send_template":     {"template", "broadcast", "notification", "notify"},
		"ask_question":      {"ask", "question", "collect", "capture", "prompt the user"},
		"set_variable":      {"save", "store", "remember", "variable", "keep track"},
		"conditional":       {"if", "when", "check", "compare", "depending", "whether"},
		"switch":            {"switch", "route", "menu", "option", "choose"},
		"loop":              {"each", "every item", "repeat", "iterate", "for all"},
		"try_catch":         {"error", "fail", "fallback", "retry", "recover"},
		"delay":             {"wait", "delay", "pause", "later", "after a while"},
		"http_request":      {"http", "api", "request", "fetch", "webhook", "endpoint", "call"},
		"shopify":           {"shopify", "product", "order", "cart", "inventory", "store"},
		"paystack":          {"paystack", "payment", "pay", "charge", "invoice", "checkout"},
		"openai_completion": {"ai", "gpt", "openai", "generate", "summari[sz]e", "translate", "llm"},
		"handoff_agent":     {"human", "agent", "handoff", "escalate", "support team"},
	}
}

// followTable biases toward node types that commonly follow the previous
// node in a conversation graph.
func followTable() map[string][]string {
	return map[string][]string{
		"whatsapp_trigger": {"whatsapp_reply", "ask_question", "conditional"},
		"keyword_trigger":  {"whatsapp_reply", "ask_question"},
		"ask_question":     {"set_variable", "conditional"},
		"conditional":      {"whatsapp_reply", "send_template", "http_request"},
		"http_request":     {"conditional", "set_variable", "try_catch"},
		"shopify":          {"whatsapp_reply", "try_catch"},
		"paystack":         {"whatsapp_reply", "try_catch"},
		"loop":             {"whatsapp_reply", "http_request"},
	}
}

// alternativeTable lists commonly interchangeable node types.
func alternativeTable() map[string][]string {
	return map[string][]string{
		"conditional":       {"switch", "try_catch"},
		"switch":            {"conditional"},
		"whatsapp_reply":    {"send_template"},
		"send_template":     {"whatsapp_reply"},
		"ask_question":      {"whatsapp_reply"},
		"loop":              {"conditional"},
		"try_catch":         {"conditional"},
		"http_request":      {"shopify", "paystack"},
		"openai_completion": {"http_request"},
	}
}

// Recommend ranks node types against the action text and returns the top
// three by confidence.
func (a *Advisor) Recommend(action string, ctx *Context) []Recommendation {
	var recs []Recommendation

	for nodeType, patterns := range a.patterns {
		confidence := 0.0

		var matched []string

		for _, p := range patterns {
			if p.re.MatchString(action) {
				confidence += patternConfidence

				matched = append(matched, p.keyword)
			}
		}

		if ctx != nil {
			if ctx.Integration != "" && strings.Contains(nodeType, strings.ToLower(ctx.Integration)) {
				confidence += integrationBoost

				matched = append(matched, "integration:"+ctx.Integration)
			}

			if ctx.PreviousNodeType != "" && contains(a.follows[ctx.PreviousNodeType], nodeType) {
				confidence += precedingBoost

				matched = append(matched, "follows:"+ctx.PreviousNodeType)
			}
		}

		if confidence == 0 {
			continue
		}

		if confidence > confidenceCap {
			confidence = confidenceCap
		}

		sort.Strings(matched)
		recs = append(recs, Recommendation{
			NodeType:   nodeType,
			Confidence: confidence,
			Reasoning:  fmt.Sprintf("matched: %s", strings.Join(matched, ", ")),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}

		return recs[i].NodeType < recs[j].NodeType
	})

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	return recs
}

// Score rates how well a node type satisfies a structured intent, on a
// 0-10 scale.
func (a *Advisor) Score(nodeType string, intent Intent) float64 {
	score := 0.0

	if contains(intent.SuggestedNodes, nodeType) {
		score += 6
	}

	overlap := 0.0

	for _, kw := range intent.Keywords {
		for _, p := range a.patterns[nodeType] {
			if strings.EqualFold(p.keyword, kw) || p.re.MatchString(kw) {
				overlap++

				break
			}
		}
	}

	if overlap > 3 {
		overlap = 3
	}

	score += overlap

	if intent.Integration != "" && strings.Contains(nodeType, strings.ToLower(intent.Integration)) {
		score++
	}

	if score > 10 {
		score = 10
	}

	return score
}

// SuggestAlternatives returns commonly interchangeable node types.
func (a *Advisor) SuggestAlternatives(nodeType string) []string {
	alts := a.alternatives[nodeType]

	out := make([]string, 0, len(alts))
	for _, alt := range alts {
		if a.library.Exists(alt) {
			out = append(out, alt)
		}
	}

	return out
}

// ValidateNodeSelection sanity-checks a proposed set of node types before
// a blueprint is assembled from them. Advisory only.
func (a *Advisor) ValidateNodeSelection(nodeTypes []string) Selection {
	selection := Selection{
		Valid:       true,
		Issues:      []string{},
		Suggestions: []string{},
	}

	hasTrigger := false
	hasReply := false
	hasIntegration := false
	hasErrorHandling := false
	conditionals := 0

	for _, nodeType := range nodeTypes {
		def, ok := a.library.Get(nodeType)
		if !ok {
			selection.Issues = append(selection.Issues, fmt.Sprintf("unknown node type %q", nodeType))

			continue
		}

		switch def.Category {
		case models.CategoryTrigger:
			hasTrigger = true
		case models.CategoryIntegration:
			hasIntegration = true
		case models.CategoryCondition:
			conditionals++
		}

		switch nodeType {
		case "whatsapp_reply", "send_template":
			hasReply = true
		case "try_catch":
			hasErrorHandling = true
		}
	}

	if !hasTrigger {
		selection.Issues = append(selection.Issues, "no trigger node selected; the workflow cannot start")
	}

	if !hasReply {
		selection.Issues = append(selection.Issues, "no reply node selected; the user never hears back")
	}

	if hasIntegration && !hasErrorHandling {
		selection.Suggestions = append(selection.Suggestions,
			"integration nodes should be paired with a try_catch node for error handling")
	}

	if len(nodeTypes) > branchThreshold && conditionals == 0 {
		selection.Suggestions = append(selection.Suggestions,
			"a workflow this size usually needs a conditional node to branch on user input")
	}

	selection.Valid = len(selection.Issues) == 0

	return selection
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}

	return false
}
