package auth

// Provider names a social sign-in channel. The value doubles as the
// provenance flag set on the user record.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
	ProviderGitHub    Provider = "github"
)

// Identity is the credential-proof produced by a provider after it has
// verified whatever the client presented (ID token, access token, or OAuth
// code). All three providers converge on this one shape, and the identity
// service upserts exactly one user record from it — the four login paths
// differ only in how an Identity is obtained.
//
// Username is the canonical handle: the verified email when the provider
// exposes one, otherwise a provider-prefixed synthetic id such as
// "google_<sub>", "ms_<id>" or "gh_<id>". Because usernames are the join key
// for every collection, a user who signs in via Google and later via GitHub
// with the same verified email lands on the same record.
type Identity struct {
	Provider    Provider
	Username    string
	Email       string
	DisplayName string
	Picture     string
}
