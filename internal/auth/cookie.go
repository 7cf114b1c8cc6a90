package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieJar seals identity tokens into an HTTP-only cookie.
type CookieJar struct {
	name     string
	codec    *securecookie.SecureCookie
	secure   bool
	sameSite http.SameSite
}

type CookieConfig struct {
	Name string
	// HashKey and BlockKey are base64 encoded. Random keys are generated
	// when HashKey is empty, which invalidates cookies on restart.
	HashKey    string
	BlockKey   string
	Production bool
	MaxAge     time.Duration
}

func NewCookieJar(config CookieConfig) (*CookieJar, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("cookie name is empty")
	}

	hashKey, err := decodeKey(config.HashKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie hash key: %w", err)
	}
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(32)
	}

	blockKey, err := decodeKey(config.BlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie block key: %w", err)
	}

	codec := securecookie.New(hashKey, blockKey)
	if config.MaxAge > 0 {
		codec.MaxAge(int(config.MaxAge.Seconds()))
	}

	jar := &CookieJar{
		name:     config.Name,
		codec:    codec,
		sameSite: http.SameSiteLaxMode,
	}

	// cross-site frontends need SameSite=None, which browsers only accept on secure cookies
	if config.Production {
		jar.secure = true
		jar.sameSite = http.SameSiteNoneMode
	}

	return jar, nil
}

func decodeKey(v string) ([]byte, error) {
	if v == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(v)
}

func (j *CookieJar) Name() string {
	return j.name
}

// Encode seals token into a cookie value.
func (j *CookieJar) Encode(token string) (string, error) {
	return j.codec.Encode(j.name, token)
}

func (j *CookieJar) Set(w http.ResponseWriter, token string, expiresAt time.Time) error {
	value, err := j.Encode(token)
	if err != nil {
		return fmt.Errorf("encode identity cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     j.name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: j.sameSite,
	})

	return nil
}

// Read returns the token sealed in the request's identity cookie.
func (j *CookieJar) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(j.name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNoToken
		}
		return "", err
	}

	if cookie.Value == "" {
		return "", ErrNoToken
	}

	var token string
	if err := j.codec.Decode(j.name, cookie.Value, &token); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return token, nil
}

// Clear tells the client to drop the identity cookie. The attributes must
// match the ones used by Set or browsers keep the original cookie.
func (j *CookieJar) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     j.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: j.sameSite,
	})
}
