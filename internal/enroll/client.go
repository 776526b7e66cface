// Package enroll receives freshly authorized credentials from the auth
// backend over an outbound WebSocket, so enrollment works from VMs and
// remote machines with no localhost callback server.
package enroll

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

// Client connects to the auth backend for one enrollment session: it
// receives the browser authorize URL first, then blocks until the backend
// pushes the authorized credential fields.
type Client struct {
	backendURL string // e.g. "https://auth.example.com"
	service    string // registered token type being enrolled
	state      string // CSRF token
	conn       *websocket.Conn
	mu         sync.Mutex
}

// wsMessage represents a message received over the WebSocket connection.
type wsMessage struct {
	Type         string            `json:"type"`
	AuthorizeURL string            `json:"authorize_url,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// NewClient creates an enrollment client for one service.
// backendURL is the auth backend base URL (http, https, ws, or wss).
func NewClient(backendURL, service string) (*Client, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	return &Client{
		backendURL: backendURL,
		service:    service,
		state:      hex.EncodeToString(stateBytes),
	}, nil
}

// Connect establishes the WebSocket connection and waits for the session
// message. Returns the URL the user must open in a browser.
func (c *Client) Connect(ctx context.Context) (authorizeURL string, err error) {
	wsURL := toWebSocketURL(c.backendURL) + "/ws/enroll?service=" + url.QueryEscape(c.service) + "&state=" + c.state

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("failed to connect to auth backend: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	var msg wsMessage
	if err := c.readMessage(ctx, &msg); err != nil {
		_ = c.Close()
		return "", fmt.Errorf("failed to read session message: %w", err)
	}

	if msg.Type == "error" {
		_ = c.Close()
		return "", fmt.Errorf("auth backend error: %s", msg.Error)
	}

	if msg.Type != "session" || msg.AuthorizeURL == "" {
		_ = c.Close()
		return "", fmt.Errorf("unexpected message type: %s (expected session with authorize_url)", msg.Type)
	}

	return msg.AuthorizeURL, nil
}

// WaitForCredential blocks until the backend pushes the authorized
// credential fields. Must be called after Connect. The context controls
// the timeout; the fields go straight into the vault, never to disk or
// logs here.
func (c *Client) WaitForCredential(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("not connected (call Connect first)")
	}

	var msg wsMessage
	if err := c.readMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("failed waiting for credential: %w", err)
	}

	switch msg.Type {
	case "credential":
		if len(msg.Fields) == 0 {
			return nil, fmt.Errorf("received empty credential from backend")
		}
		return msg.Fields, nil
	case "error":
		return nil, fmt.Errorf("authorization error: %s", msg.Error)
	default:
		return nil, fmt.Errorf("unexpected message type: %s (expected credential)", msg.Type)
	}
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close(websocket.StatusNormalClosure, "done")
		c.conn = nil
		return err
	}
	return nil
}

// readMessage reads and decodes a JSON message from the WebSocket connection.
func (c *Client) readMessage(ctx context.Context, msg *wsMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, msg)
}

// toWebSocketURL converts an HTTP(S) URL to a WS(S) URL.
func toWebSocketURL(httpURL string) string {
	if strings.HasPrefix(httpURL, "https://") {
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	}
	if strings.HasPrefix(httpURL, "http://") {
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	// Already a ws:// or wss:// URL
	return httpURL
}
