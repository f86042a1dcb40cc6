package lmsapi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway refreshes slightly before the access token actually expires.
const expiryLeeway = 10 * time.Second

// Credentials are the caller's LMS tokens. The studio never verifies them,
// the LMS does; they are only inspected for expiry and the user id claim.
type Credentials struct {
	mu        sync.Mutex
	access    string
	refresh   string
	refreshed bool
}

func NewCredentials(access, refresh string) *Credentials {
	return &Credentials{access: access, refresh: refresh}
}

func (c *Credentials) Access() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

// Refreshed reports whether the access token was renewed during this request.
func (c *Credentials) Refreshed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshed
}

func (c *Credentials) canRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh != ""
}

func (c *Credentials) refreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh
}

func (c *Credentials) update(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = access
	if refresh != "" {
		c.refresh = refresh
	}
	c.refreshed = true
}

// Expired reports whether the access token carries an exp claim in the past.
// Tokens that cannot be parsed are treated as not expired and left to the LMS.
func (c *Credentials) Expired(now time.Time) bool {
	claims, err := c.claims()
	if err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Add(expiryLeeway).After(exp.Time)
}

// UserID returns the user_id claim of the access token, falling back to sub.
func (c *Credentials) UserID() (string, error) {
	claims, err := c.claims()
	if err != nil {
		return "", err
	}
	switch v := claims["user_id"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no user_id or sub claim")
	}
	return sub, nil
}

func (c *Credentials) claims() (jwt.MapClaims, error) {
	access := c.Access()
	if access == "" {
		return nil, ErrUnauthorized
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}
