// Package identity resolves who is making a request. It turns the
// transport-agnostic hint bundles collected by the request layer into a
// single IdentityContext without consulting any external state.
package identity

// =============================================================================
// SOURCE TYPES
// =============================================================================

// Source records which hint bundle supplied the user identity.
type Source string

const (
	// SourceBody means the user came from body-embedded metadata.
	SourceBody Source = "body"

	// SourceHeader means the user came from forwarded frontend headers.
	SourceHeader Source = "header"

	// SourceUpstream means the user came from upstream proxy metadata.
	SourceUpstream Source = "upstream_metadata"

	// SourceUserField means the user came from the generic user field.
	SourceUserField Source = "user_field"

	// SourceNone means no bundle yielded a user; the request is anonymous.
	SourceNone Source = "none"
)

// =============================================================================
// IDENTITY CONTEXT
// =============================================================================

// Context is the resolved identity for one request. Empty strings mean the
// field could not be determined. When UserID is empty, Source is SourceNone
// and every other field is empty too.
type Context struct {
	// UserID is the stable identifier used to key per-user state.
	UserID string `json:"user_id,omitempty"`

	// SessionID groups requests belonging to one conversation.
	SessionID string `json:"session_id,omitempty"`

	// ChatID is the frontend chat thread, when the frontend exposes one.
	ChatID string `json:"chat_id,omitempty"`

	// Source is the bundle that supplied UserID.
	Source Source `json:"source"`
}

// Anonymous reports whether no hint bundle yielded a user.
func (c Context) Anonymous() bool {
	return c.Source == SourceNone || c.UserID == ""
}

// =============================================================================
// HINT BUNDLES
// =============================================================================

// Canonical keys for the hint bundle maps. The request layer maps transport
// specifics (header names, JSON paths) onto these before calling Resolve.
const (
	// KeyUserID carries the user identifier in body and header bundles.
	KeyUserID = "user_id"

	// KeyEmail carries the user email, accepted as a user identifier in
	// the header bundle when no explicit user id was forwarded.
	KeyEmail = "email"

	// KeySessionID carries the session identifier in body and upstream bundles.
	KeySessionID = "session_id"

	// KeyChatID carries the chat thread identifier in body and header bundles.
	KeyChatID = "chat_id"

	// KeyConversationID is the upstream bundle's fallback session key.
	KeyConversationID = "conversation_id"
)

// Hints carries the raw identity material for one request. Every bundle is
// optional; nil and empty maps are equivalent. Values are used as-is apart
// from whitespace trimming, so callers do not need to pre-clean them.
type Hints struct {
	// BodyMetadata holds identity fields embedded in the request body
	// by an agent-aware client.
	BodyMetadata map[string]string

	// ForwardedHeaders holds identity fields forwarded by a trusted
	// frontend, keyed canonically (not by raw header name).
	ForwardedHeaders map[string]string

	// UpstreamMetadata holds fields attached by an upstream proxy layer.
	// It can supply a session but never a user.
	UpstreamMetadata map[string]string

	// UserField is the generic user field some clients send at the top
	// level of the request body. Lowest-priority user source.
	UserField string
}
