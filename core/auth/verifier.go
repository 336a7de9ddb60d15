package auth

import (
	"errors"

	"tunedrop/logger"
	"tunedrop/model"
	"tunedrop/repository"
)

// Identity is the result of a successful credential check.
type Identity struct {
	UserID int64
	Email  string
}

// ErrUnauthenticated is returned for any missing, malformed, expired or
// otherwise unverifiable credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// CredentialVerifier turns a bearer token into an Identity. Exactly one
// implementation is active per deployment: the signed verifier in
// production, the dev verifier only when AUTH_DEV_MODE is set. The two are
// never consulted in sequence.
type CredentialVerifier interface {
	Verify(token string) (*Identity, error)
}

// SignedVerifier accepts only tokens carrying a valid HMAC signature.
type SignedVerifier struct {
	secret []byte
}

// NewSignedVerifier creates the production verifier.
func NewSignedVerifier(secret []byte) *SignedVerifier {
	return &SignedVerifier{secret: secret}
}

func (v *SignedVerifier) Verify(token string) (*Identity, error) {
	claims, err := ParseToken(token, v.secret)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// DevVerifier decodes a token without signature verification and
// cross-checks the subject against the user directory. It exists for local
// development only and must never be reachable in a production deployment.
type DevVerifier struct {
	users repository.UserRepository
}

// NewDevVerifier creates the dev fallback verifier and logs loudly so an
// accidentally enabled dev mode is visible in any log stream.
func NewDevVerifier(users repository.UserRepository) *DevVerifier {
	logger.Warn("AUTH_DEV_MODE is enabled: accepting unsigned tokens cross-checked against the user directory. Never run this in production.")
	return &DevVerifier{users: users}
}

func (v *DevVerifier) Verify(token string) (*Identity, error) {
	claims, err := DecodeUnverified(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	// The decoded subject is only trusted if the user actually exists.
	user, err := v.users.GetUserByID(claims.UserID)
	if err != nil || user == nil {
		return nil, ErrUnauthenticated
	}

	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

// NewVerifier selects the verifier for this deployment.
func NewVerifier(devMode bool, secret []byte, users repository.UserRepository) CredentialVerifier {
	if devMode {
		return NewDevVerifier(users)
	}
	return NewSignedVerifier(secret)
}

// Authorize resolves the identity's role from the user directory and checks
// it against the required role. A nil requiredRole check is expressed by
// passing the empty string, which only requires the user to exist and be
// active.
func Authorize(users repository.UserRepository, identity *Identity, requiredRole string) (*model.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	user, err := users.GetUserByID(identity.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status == model.UserStatusInactive {
		return nil, ErrForbidden
	}
	if requiredRole != "" && user.Role != requiredRole {
		return nil, ErrForbidden
	}
	return user, nil
}

// Authorization failures.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("forbidden")
)
