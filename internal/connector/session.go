package connector

import "encoding/json"

// Session carries per-request authentication state across connector calls.
// Connectors read and write their own token; persisting the session between
// requests is the transport layer's responsibility. Extra holds fields the
// core does not interpret, so older sessions keep round-tripping as the
// transport evolves.
type Session struct {
	Tokens map[string]json.RawMessage `json:"tokens,omitempty"`
	Extra  map[string]json.RawMessage `json:"extra,omitempty"`
}

// Token returns the stored token for a connector, if any.
func (s *Session) Token(connectorID string) (json.RawMessage, bool) {
	if s == nil || s.Tokens == nil {
		return nil, false
	}
	tok, ok := s.Tokens[connectorID]
	return tok, ok
}

// SetToken stores a token for a connector.
func (s *Session) SetToken(connectorID string, token json.RawMessage) {
	if s.Tokens == nil {
		s.Tokens = make(map[string]json.RawMessage)
	}
	s.Tokens[connectorID] = token
}

// ClearToken removes a connector's token, if present.
func (s *Session) ClearToken(connectorID string) {
	if s == nil || s.Tokens == nil {
		return
	}
	delete(s.Tokens, connectorID)
}
