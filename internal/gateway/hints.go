// Package gateway - hints.go maps raw HTTP requests to identity hints.
//
// DESIGN: Each hint bundle is extracted independently and handed to the
// resolver as-is:
//   - Body metadata:     "metadata" object in the JSON body
//   - Forwarded headers: X-OpenWebUI-* headers set by the frontend
//   - Upstream metadata: "litellm_metadata" object set by an upstream proxy
//   - User field:        bare "user" string at the body root
//
// Malformed JSON never fails a request; the bundle is simply absent and
// resolution falls through to the next source.
package gateway

import (
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/relayforge/agent-gateway/internal/identity"
)

// Headers forwarded by the frontend for the signed-in user.
const (
	HeaderUserID    = "X-OpenWebUI-User-Id"
	HeaderUserEmail = "X-OpenWebUI-User-Email"
	HeaderChatID    = "X-OpenWebUI-Chat-Id"

	// HeaderRequestID lets callers supply their own correlation ID.
	HeaderRequestID = "X-Request-ID"
)

// JSON paths for the body-carried hint bundles.
const (
	bodyMetadataPath     = "metadata"
	upstreamMetadataPath = "litellm_metadata"
	userFieldPath        = "user"
)

// hintsFromRequest extracts the identity hint bundles from one request.
// body may be nil for requests without one.
func hintsFromRequest(r *http.Request, body []byte) identity.Hints {
	var h identity.Hints

	if len(body) > 0 && gjson.ValidBytes(body) {
		h.BodyMetadata = hintMap(gjson.GetBytes(body, bodyMetadataPath))
		h.UpstreamMetadata = hintMap(gjson.GetBytes(body, upstreamMetadataPath))
		if user := gjson.GetBytes(body, userFieldPath); user.Type == gjson.String {
			h.UserField = user.String()
		}
	}

	headers := make(map[string]string)
	if v := r.Header.Get(HeaderUserID); v != "" {
		headers[identity.KeyUserID] = v
	}
	if v := r.Header.Get(HeaderUserEmail); v != "" {
		headers[identity.KeyEmail] = v
	}
	if v := r.Header.Get(HeaderChatID); v != "" {
		headers[identity.KeyChatID] = v
	}
	if len(headers) > 0 {
		h.ForwardedHeaders = headers
	}

	return h
}

// hintMap flattens a JSON object into string hints. Scalars keep their
// JSON string form; nested objects and arrays are ignored.
func hintMap(res gjson.Result) map[string]string {
	if !res.IsObject() {
		return nil
	}

	m := make(map[string]string)
	res.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			m[key.String()] = value.String()
		}
		return true
	})

	if len(m) == 0 {
		return nil
	}
	return m
}
