// Package auth provides JWT authentication for the control plane API.
package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType indicates whether a token is an access token or refresh token.
type TokenType string

const (
	// TokenTypeAccess is a short-lived token used for API authorization.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is a long-lived token used to obtain new access tokens.
	TokenTypeRefresh TokenType = "refresh"

	// docScopeAll grants access to every document, used for operator/CLI
	// tokens rather than individual sync clients.
	docScopeAll = "*"
)

// Claims represents the JWT claims carried by a connecting sync client.
//
// A client is scoped to one or more document ids rather than to a
// filesystem share or protocol identity: the control plane API rejects
// any sync-step or update request for a docID not present in DocIDs
// (unless DocIDs contains the wildcard scope).
type Claims struct {
	jwt.RegisteredClaims

	// ClientID is the caller-chosen Lamport client identifier this token
	// authorizes. Nothing compares it with the client ids carried inside
	// update frames.
	ClientID string `json:"client_id"`

	// DocIDs is the set of document ids this token may sync. A single
	// entry of "*" authorizes every document.
	DocIDs []string `json:"doc_ids,omitempty"`

	// TokenType indicates whether this is an access or refresh token.
	TokenType TokenType `json:"token_type"`
}

// IsAccessToken returns true if this is an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken returns true if this is a refresh token.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}

// CanAccessDoc returns true if the token authorizes syncing docID.
func (c *Claims) CanAccessDoc(docID string) bool {
	return slices.Contains(c.DocIDs, docScopeAll) || slices.Contains(c.DocIDs, docID)
}
