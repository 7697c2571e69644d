package models

// Variable namespaces recognized by the resolution engine. The first path
// segment of a {{token}} selects one of these; "env" and "credentials" are
// handled separately by the engine.
const (
	NamespaceBot          = "bot"
	NamespaceUser         = "user"
	NamespaceConversation = "conversation"
	NamespaceCustom       = "custom"
)

// NamespaceOrder fixes the scan order used when an unrecognized first
// segment falls back to a linear search across all namespaces.
var NamespaceOrder = []string{NamespaceBot, NamespaceUser, NamespaceConversation, NamespaceCustom}

// Namespaces partitions resolution variables into scoped value trees.
type Namespaces struct {
	Bot          map[string]any `json:"bot,omitempty"`
	User         map[string]any `json:"user,omitempty"`
	Conversation map[string]any `json:"conversation,omitempty"`
	Custom       map[string]any `json:"custom,omitempty"`
}

// Tree returns the value tree for a namespace name.
func (n *Namespaces) Tree(name string) (map[string]any, bool) {
	switch name {
	case NamespaceBot:
		return n.Bot, n.Bot != nil
	case NamespaceUser:
		return n.User, n.User != nil
	case NamespaceConversation:
		return n.Conversation, n.Conversation != nil
	case NamespaceCustom:
		return n.Custom, n.Custom != nil
	default:
		return nil, false
	}
}

// InjectionContext carries the values available to one resolution pass.
// Constructed fresh per pass by the caller and discarded after use; never
// persisted. Credentials maps credential names to opaque handles supplied
// by the external credential store, never raw secrets.
type InjectionContext struct {
	Variables   Namespaces        `json:"variables"`
	Credentials map[string]string `json:"credentials,omitempty"`
}
