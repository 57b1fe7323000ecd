package identity

import (
	"context"
	"errors"
	"time"

	"topicslog/internal/docstore"
	"topicslog/internal/domain"
	appErrors "topicslog/internal/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator is the credential service: it only knows credential ids and
// opaque account uids.
type Authenticator interface {
	CreateCredential(ctx context.Context, credentialID, password string) (string, error)
	VerifyCredential(ctx context.Context, credentialID, password string) (*domain.Credential, error)
}

// PasswordAuthenticator stores bcrypt hashes keyed by credential id.
type PasswordAuthenticator struct {
	store docstore.CredentialStore
	cost  int
	now   func() time.Time
}

func NewPasswordAuthenticator(store docstore.CredentialStore, cost int) *PasswordAuthenticator {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordAuthenticator{store: store, cost: cost, now: time.Now}
}

func (a *PasswordAuthenticator) CreateCredential(ctx context.Context, credentialID, password string) (string, error) {
	// Hash the password before saving
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", appErrors.Validation("Password can't be used", err)
	}

	cred := &domain.Credential{
		CredentialID: credentialID,
		UID:          uuid.NewString(),
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return "", appErrors.AlreadyExists("This User ID is already taken.", err)
		}
		return "", err
	}
	return cred.UID, nil
}

func (a *PasswordAuthenticator) VerifyCredential(ctx context.Context, credentialID, password string) (*domain.Credential, error) {
	cred, err := a.store.GetCredential(ctx, credentialID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.Unauthorized("User not found", err)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.Unauthorized("Wrong password", err)
	}
	return cred, nil
}
