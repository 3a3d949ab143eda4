package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier checks ID tokens issued by an OpenID Connect provider.
// Firebase Authentication tokens verify with issuer
// https://securetoken.google.com/<project-id> and the project id as client id.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

type idTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	if issuerURL == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC issuer and client id are required")
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	var extra idTokenClaims
	if err := idToken.Claims(&extra); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if idToken.Subject == "" || extra.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", ErrInvalidCredential)
	}

	return &Claims{
		Subject:     idToken.Subject,
		Email:       extra.Email,
		DisplayName: extra.Name,
		PhotoURL:    extra.Picture,
	}, nil
}
