package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// githubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object — we only unmarshal the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type githubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID — stable, never changes
	Login     string `json:"login"`      // GitHub username
	Name      string `json:"name"`       // Display name (may be empty)
	Email     string `json:"email"`      // Primary email (empty if hidden in GitHub settings)
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// githubEmail is one entry of the /user/emails response, consulted when the
// profile email is hidden.
type githubEmail struct {
	Email   string `json:"email"`
	Primary bool   `json:"primary"`
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The server redirects the user to GitHub's authorization endpoint,
//     with our ClientID and the requested scopes plus a state nonce.
//  2. The user approves the request on GitHub.
//  3. GitHub redirects back to the callback URL with a short-lived "code".
//  4. The server exchanges the code for an access token (server-to-server,
//     using the ClientSecret — the token never touches the browser).
//  5. The server uses the access token to call the GitHub API for user info.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string // overridable in tests
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// callbackURL must exactly match the "Authorization callback URL" configured
// on the OAuth App, e.g. "http://localhost:8080/auth/github/callback".
//
// Scopes:
//   - "read:user"  — the user's public profile (ID, login, avatar)
//   - "user:email" — the user's email addresses (for the hidden-email fallback)
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint, // pre-defined GitHub OAuth endpoints
		},
		apiBase: "https://api.github.com",
	}
}

// Configured reports whether OAuth credentials were provided. When they
// weren't, the GitHub routes answer with a disabled-feature error instead of
// redirecting to a broken authorize URL.
func (p *GitHubProvider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

// AuthURL returns the GitHub authorization URL for the given state nonce.
//
// STATE PARAMETER:
// The state is a random string stored in a short-lived cookie before the
// redirect. The callback must present the same value, which proves the flow
// was initiated by this server and not forged cross-site.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// verified Identity.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Call GitHub's /user endpoint with the token
//  3. If the profile email is hidden, fall back to /user/emails and prefer
//     the address marked primary
//
// Username derivation: the email when one is known, else "gh_<id>".
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	ghUser, err := p.fetchUser(ctx, client)
	if err != nil {
		return nil, err
	}

	email := ghUser.Email
	if email == "" {
		// Hidden on the profile — the dedicated emails endpoint still
		// returns the addresses our user:email scope covers.
		email = p.fetchPrimaryEmail(ctx, client)
	}

	username := email
	if username == "" {
		username = fmt.Sprintf("gh_%d", ghUser.ID)
	}

	display := ghUser.Name
	if display == "" {
		display = ghUser.Login
	}

	return &Identity{
		Provider:    ProviderGitHub,
		Username:    username,
		Email:       email,
		DisplayName: display,
		Picture:     ghUser.AvatarURL,
	}, nil
}

func (p *GitHubProvider) fetchUser(ctx context.Context, client *http.Client) (*githubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser githubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}

// fetchPrimaryEmail asks /user/emails for the primary address. A failure
// here is not fatal — the caller falls back to the synthetic gh_<id> handle.
func (p *GitHubProvider) fetchPrimaryEmail(ctx context.Context, client *http.Client) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/user/emails", nil)
	if err != nil {
		return ""
	}

	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return ""
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}
