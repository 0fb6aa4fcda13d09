package domain

// Provider names an external identity provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderLinkedIn Provider = "linkedin"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderLinkedIn
}

// Assertion is a claim of identity presented for reconciliation.
// It is implemented only by LocalSignup, LocalLogin and ExternalIdentity.
type Assertion interface {
	assertion()
}

// LocalSignup registers a new password account.
type LocalSignup struct {
	Email    string
	Password string
	Name     string
}

// LocalLogin authenticates a password account.
type LocalLogin struct {
	Email    string
	Password string
}

// ExternalIdentity is a normalized profile returned by an OAuth provider
// after the code exchange.
type ExternalIdentity struct {
	Provider    Provider
	ProviderID  string
	Email       string
	DisplayName string
}

func (LocalSignup) assertion()      {}
func (LocalLogin) assertion()       {}
func (ExternalIdentity) assertion() {}
