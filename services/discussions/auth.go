package discussionsvc

import (
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/umarmughal824/micromasters-sub002/core/discussions"
)

// systemUsername identifies calls made on the platform's admin account
// rather than on behalf of a specific discussion user.
const systemUsername = "micromasters"

const tokenLifetime = 5 * time.Minute

// Claims carries the identity the discussion platform expects in its auth
// tokens.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
}

// authToken mints a short-lived token for the given discussion username,
// falling back to the system identity for user-less calls.
func (c *client) authToken(username string) (string, error) {
	roles := []string(nil)
	if username == "" {
		username = systemUsername
		roles = []string{"staff"}
	}

	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
		},
		Username: username,
		Roles:    roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", &discussions.AuthenticationError{Username: username, Err: err}
	}
	return signed, nil
}
