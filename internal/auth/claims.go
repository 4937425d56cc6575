package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the shell reads out of an access token. The signature is
// not checked; the backend remains the only authority on validity.
type Claims struct {
	UserID    int64
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID any `json:"user_id"`
}

func ParseClaims(token string) (Claims, error) {
	var ac accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &ac); err != nil {
		return Claims{}, fmt.Errorf("parse access token: %w", err)
	}

	var c Claims
	if ac.ExpiresAt != nil {
		c.ExpiresAt = ac.ExpiresAt.Time
	}

	switch v := ac.UserID.(type) {
	case nil:
	case float64:
		c.UserID = int64(v)
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Claims{}, fmt.Errorf("parse access token: user_id %q: %w", v, err)
		}
		c.UserID = id
	default:
		return Claims{}, fmt.Errorf("parse access token: unexpected user_id type %T", v)
	}
	return c, nil
}
