package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrNoToken      = errors.New("no identity token")
	ErrInvalidToken = errors.New("invalid identity token")
)

const tokenIssuer = "foodforall"

// Identity is the claim carried by an identity token.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Issuer signs and verifies HS256 identity tokens with a server secret.
// Tokens are not tracked server side; they stay valid until they expire.
type Issuer struct {
	key jwk.Key
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret is empty")
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	key, err := jwk.Import(secret)
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	return &Issuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for id and the moment it expires.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	email := strings.TrimSpace(id.Email)
	if email == "" {
		return "", time.Time{}, fmt.Errorf("identity email is required")
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	builder := jwt.NewBuilder().
		Issuer(tokenIssuer).
		Subject(email).
		IssuedAt(issuedAt).
		Expiration(expiresAt).
		Claim("email", email)
	if id.Name != "" {
		builder = builder.Claim("name", id.Name)
	}

	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), i.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), expiresAt, nil
}

// Verify checks the signature, issuer and expiry of raw and returns its identity.
func (i *Issuer) Verify(raw string) (*Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoToken
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), i.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var email string
	if err := token.Get("email", &email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}

	id := &Identity{Email: email}

	// name is optional
	var name string
	if err := token.Get("name", &name); err == nil {
		id.Name = name
	}

	return id, nil
}
