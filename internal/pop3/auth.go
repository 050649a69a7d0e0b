package pop3

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/mailspool/mailspool/internal/config"
)

// Authenticator validates the single configured credential pair.
// The password may be configured as plaintext or as a bcrypt hash.
type Authenticator struct {
	username     string
	password     string
	passwordHash string
}

// NewAuthenticator creates an Authenticator from the auth configuration.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		username:     cfg.Username,
		password:     cfg.Password,
		passwordHash: cfg.PasswordHash,
	}
}

// Verify reports whether the given credentials match the configured pair.
// Comparison of plaintext values is constant-time.
func (a *Authenticator) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1

	var passOK bool
	if a.passwordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	}

	return userOK && passOK
}
