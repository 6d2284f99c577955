package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jws"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// ErrMissingToken indicates the authorization header carried no token
var ErrMissingToken = errors.New("missing bearer token")

// Verifier validates RS256 bearer tokens issued by the identity provider at
// the configured base URL. Audience is deliberately not checked unless one
// is configured; the provider's tokens are accepted for any audience by
// default.
//
// Every failure is collapsed into simplemedia.ErrUnauthorized for callers;
// the failure subtype is only logged.
type Verifier struct {
	resolver *KeyResolver
	issuer   string
	audience string
	logger   *slog.Logger
}

// Config options for the verifier
type Config struct {
	BaseURL  string // Identity provider base URL, also the expected issuer
	Audience string // Optional audience to enforce; empty disables the check
	Logger   *slog.Logger
}

// NewVerifier creates a verifier backed by the provider's discovery endpoint
func NewVerifier(config Config) (*Verifier, error) {
	if config.BaseURL == "" {
		return nil, errors.New("identity provider base URL is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		resolver: NewKeyResolver(config.BaseURL),
		issuer:   strings.TrimSuffix(config.BaseURL, "/"),
		audience: config.Audience,
		logger:   logger,
	}, nil
}

// Verify resolves the authorization header value to the token's subject
// claim. It is a pure function of the token and the current key cache.
func (v *Verifier) Verify(ctx context.Context, authorization string) (string, error) {
	subject, err := v.verify(ctx, authorization)
	if err != nil {
		v.logger.Info("token verification failed", "error", err)
		return "", fmt.Errorf("%w: token verification failed", simplemedia.ErrUnauthorized)
	}
	return subject, nil
}

func (v *Verifier) verify(ctx context.Context, authorization string) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	if token == "" {
		return "", ErrMissingToken
	}

	kid, err := signingKeyID(token)
	if err != nil {
		return "", err
	}

	key, err := v.resolver.Resolve(ctx, kid)
	if err != nil {
		return "", err
	}

	var pubkey interface{}
	if err := key.Raw(&pubkey); err != nil {
		return "", fmt.Errorf("failed to materialize public key: %w", err)
	}

	parsed, err := jwt.ParseString(token, jwt.WithVerify(jwa.RS256, pubkey))
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}

	validateOpts := []jwt.ValidateOption{jwt.WithIssuer(v.issuer)}
	if v.audience != "" {
		validateOpts = append(validateOpts, jwt.WithAudience(v.audience))
	}
	if err := jwt.Validate(parsed, validateOpts...); err != nil {
		return "", fmt.Errorf("claim validation failed: %w", err)
	}

	subject := parsed.Subject()
	if subject == "" {
		return "", errors.New("token has no subject claim")
	}
	return subject, nil
}

// signingKeyID extracts the kid from the token's protected header
func signingKeyID(token string) (string, error) {
	msg, err := jws.ParseString(token)
	if err != nil {
		return "", fmt.Errorf("malformed token: %w", err)
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return "", errors.New("token has no signature")
	}
	kid := sigs[0].ProtectedHeaders().KeyID()
	if kid == "" {
		return "", errors.New("token header has no key id")
	}
	return kid, nil
}
