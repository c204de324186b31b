package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// graphMe is the subset of Microsoft Graph's /v1.0/me response we need.
// https://learn.microsoft.com/en-us/graph/api/user-get
type graphMe struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`              // may be null for personal accounts
	UserPrincipalName string `json:"userPrincipalName"` // always present, often email-shaped
}

// MicrosoftProvider verifies MSAL access tokens by calling Microsoft Graph.
//
// The client obtains an access token via MSAL in the browser and posts it to
// us. We don't decode the token at all — we present it to Graph's /me
// endpoint, and Graph either answers with the account profile (token is
// valid) or rejects it. The profile is the proof.
type MicrosoftProvider struct {
	graphBase string // overridable in tests
	client    *http.Client
}

// NewMicrosoftProvider creates a MicrosoftProvider against the public Graph endpoint.
func NewMicrosoftProvider() *MicrosoftProvider {
	return &MicrosoftProvider{
		graphBase: "https://graph.microsoft.com",
		client:    http.DefaultClient,
	}
}

// Verify calls Graph /me with the access token and derives the identity.
// Username: mail, else userPrincipalName, else "ms_<id>".
func (p *MicrosoftProvider) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("auth: microsoft access_token required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphBase+"/v1.0/me", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building Graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Microsoft Graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Microsoft Graph rejected the token (status %d)", resp.StatusCode)
	}

	var me graphMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("auth: decoding Graph response: %w", err)
	}

	username := me.Mail
	if username == "" {
		username = me.UserPrincipalName
	}
	if username == "" {
		username = "ms_" + me.ID
	}

	return &Identity{
		Provider:    ProviderMicrosoft,
		Username:    username,
		Email:       username,
		DisplayName: me.DisplayName,
	}, nil
}
