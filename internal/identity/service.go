package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"topicslog/internal/docstore"
	"topicslog/internal/domain"
	appErrors "topicslog/internal/errors"

	"go.uber.org/zap"
)

const minPasswordLength = 6

type Service interface {
	SignUp(ctx context.Context, handle, password string) (*domain.Account, error)
	SignIn(ctx context.Context, handle, password string) (*domain.Account, uint64, error)
	SignOut(ctx context.Context, uid string) error
	Resolve(ctx context.Context, handle string) (string, error)
	Profile(ctx context.Context, uid string) (*domain.Account, error)
	TokenVersion(ctx context.Context, uid string) (uint64, error)
}

type DefaultService struct {
	auth   Authenticator
	store  docstore.Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(auth Authenticator, store docstore.Store, logger *zap.SugaredLogger) *DefaultService {
	return &DefaultService{auth: auth, store: store, logger: logger, now: time.Now}
}

// SignUp creates the credential, the profile and the reverse index, in that
// order. There is no rollback: when the index write fails the account still
// exists and can sign in, but nobody can share with it.
func (s *DefaultService) SignUp(ctx context.Context, handle, password string) (*domain.Account, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, appErrors.Validation("Enter User ID.", nil)
	}
	if !ValidHandle(handle) {
		return nil, appErrors.Validation("User ID can't contain spaces or @.", nil)
	}
	if password == "" {
		return nil, appErrors.Validation("Enter Password.", nil)
	}
	if len(password) < minPasswordLength {
		return nil, appErrors.Validation("Password should be at least 6 characters.", nil)
	}

	uid, err := s.auth.CreateCredential(ctx, ToCredentialID(handle), password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	account := &domain.Account{
		UID:       uid,
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	index := &domain.HandleIndex{
		HandleLower: NormalizeHandle(handle),
		UID:         uid,
		Handle:      handle,
		CreatedAt:   now,
	}
	if err := s.store.CreateHandleIndex(ctx, index); err != nil {
		s.logger.Errorw("reverse index write failed, account is not shareable",
			"uid", uid, "handle", handle, "error", err)
	}

	return account, nil
}

// SignIn verifies the password and syncs the profile, creating it when an
// earlier sign-up stopped after the credential write.
func (s *DefaultService) SignIn(ctx context.Context, handle, password string) (*domain.Account, uint64, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, 0, appErrors.Validation("Enter User ID.", nil)
	}

	cred, err := s.auth.VerifyCredential(ctx, ToCredentialID(handle), password)
	if err != nil {
		return nil, 0, err
	}

	now := s.now().UTC()
	account, err := s.store.GetAccount(ctx, cred.UID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		account = &domain.Account{UID: cred.UID, Handle: handle, CreatedAt: now}
	case err != nil:
		return nil, 0, err
	}
	account.UpdatedAt = now

	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, 0, err
	}
	return account, cred.TokenVersion, nil
}

// SignOut invalidates every token issued so far.
func (s *DefaultService) SignOut(ctx context.Context, uid string) error {
	return s.store.IncrementTokenVersion(ctx, uid)
}

// Resolve looks a handle up in the reverse index.
func (s *DefaultService) Resolve(ctx context.Context, handle string) (string, error) {
	key := NormalizeHandle(handle)
	if key == "" {
		return "", appErrors.Validation("Enter User ID.", nil)
	}

	index, err := s.store.GetHandleIndex(ctx, key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", appErrors.NotFound("User not found. Ask them to create an account first.", err)
		}
		return "", err
	}
	return index.UID, nil
}

func (s *DefaultService) Profile(ctx context.Context, uid string) (*domain.Account, error) {
	account, err := s.store.GetAccount(ctx, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.NotFound("Profile not found", err)
		}
		return nil, err
	}
	return account, nil
}

func (s *DefaultService) TokenVersion(ctx context.Context, uid string) (uint64, error) {
	cred, err := s.store.GetCredentialByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return 0, appErrors.Unauthorized("User not found", err)
		}
		return 0, err
	}
	return cred.TokenVersion, nil
}
