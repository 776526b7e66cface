package identity

import "strings"

// =============================================================================
// EXTRACTOR CHAIN
// =============================================================================

// fields is one extractor's partial view of the identity.
type fields struct {
	user    string
	session string
	chat    string
}

// extractor pulls identity fields out of a single hint bundle.
type extractor struct {
	source Source
	fn     func(Hints) fields
}

// chain lists the hint bundles in priority order. Resolve folds over it
// front to back; adding a new identity source means adding a row here.
var chain = []extractor{
	{SourceBody, fromBodyMetadata},
	{SourceHeader, fromForwardedHeaders},
	{SourceUpstream, fromUpstreamMetadata},
	{SourceUserField, fromUserField},
}

func fromBodyMetadata(h Hints) fields {
	return fields{
		user:    trimmed(h.BodyMetadata, KeyUserID),
		session: trimmed(h.BodyMetadata, KeySessionID),
		chat:    trimmed(h.BodyMetadata, KeyChatID),
	}
}

func fromForwardedHeaders(h Hints) fields {
	user := trimmed(h.ForwardedHeaders, KeyUserID)
	if user == "" {
		user = trimmed(h.ForwardedHeaders, KeyEmail)
	}
	return fields{
		user: user,
		chat: trimmed(h.ForwardedHeaders, KeyChatID),
	}
}

func fromUpstreamMetadata(h Hints) fields {
	session := trimmed(h.UpstreamMetadata, KeySessionID)
	if session == "" {
		session = trimmed(h.UpstreamMetadata, KeyConversationID)
	}
	return fields{session: session}
}

func fromUserField(h Hints) fields {
	return fields{user: strings.TrimSpace(h.UserField)}
}

func trimmed(m map[string]string, key string) string {
	return strings.TrimSpace(m[key])
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve folds the extractor chain over the hints. The first bundle that
// yields a non-empty user fixes both UserID and Source; SessionID and ChatID
// are each taken from the first bundle that has them, independently of where
// the user came from. Without a user the whole context is discarded, session
// included: a session that belongs to nobody cannot key anything downstream.
//
// Resolve is pure. Same hints in, same context out, and it never fails.
func Resolve(h Hints) Context {
	ctx := Context{Source: SourceNone}
	for _, ex := range chain {
		f := ex.fn(h)
		if ctx.UserID == "" && f.user != "" {
			ctx.UserID = f.user
			ctx.Source = ex.source
		}
		if ctx.SessionID == "" && f.session != "" {
			ctx.SessionID = f.session
		}
		if ctx.ChatID == "" && f.chat != "" {
			ctx.ChatID = f.chat
		}
	}
	if ctx.UserID == "" {
		return Context{Source: SourceNone}
	}
	return ctx
}
