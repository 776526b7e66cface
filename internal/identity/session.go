package identity

import "github.com/google/uuid"

// sessionNamespace seeds the v5 UUID derivation for default session IDs.
// Changing it changes every derived session, so it is fixed forever.
var sessionNamespace = uuid.MustParse("b7a9405e-3f0e-4f3d-9e0b-4a1c2d8e5f67")

// DefaultSessionID derives a stable fallback session for a user whose
// request carried no session hints. The same user always maps to the same
// session, so conversation-scoped state survives across requests without
// the gateway having to persist a mapping.
func DefaultSessionID(userID string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(userID)).String()
}
