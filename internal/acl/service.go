package acl

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

// Resolver turns a handle into an account uid.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (string, error)
}

type Service interface {
	GrantShare(ctx context.Context, requesterUID, topicID, handle string, role domain.Role) (*domain.Topic, error)
	RevokeShare(ctx context.Context, requesterUID, topicID, handle string) (*domain.Topic, error)
	ListShares(ctx context.Context, requesterUID, topicID string) ([]domain.ShareGrant, error)
}

type DefaultService struct {
	topics   docstore.TopicStore
	accounts docstore.AccountStore
	resolver Resolver
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(topics docstore.TopicStore, accounts docstore.AccountStore, resolver Resolver, logger *zap.SugaredLogger) *DefaultService {
	return &DefaultService{
		topics:   topics,
		accounts: accounts,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// ownedTopic loads the topic and rejects anyone but its owner.
func (s *DefaultService) ownedTopic(ctx context.Context, requesterUID, topicID string) (*domain.Topic, error) {
	topic, err := s.topics.GetTopic(ctx, topicID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.NotFound("Topic not found", err)
		}
		return nil, err
	}
	if !IsOwner(topic, requesterUID) {
		return nil, appErrors.Forbidden("Only the topic owner can manage sharing.", nil)
	}
	return topic, nil
}

func (s *DefaultService) ownerHandle(ctx context.Context, ownerUID string) string {
	account, err := s.accounts.GetAccount(ctx, ownerUID)
	if err != nil {
		s.logger.Debugw("owner profile unavailable", "uid", ownerUID, "error", err)
		return ""
	}
	return account.Handle
}

func (s *DefaultService) GrantShare(ctx context.Context, requesterUID, topicID, handle string, role domain.Role) (*domain.Topic, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, appErrors.Validation("Enter User ID.", nil)
	}
	if role == "" {
		role = domain.RoleEdit
	}
	if !role.Valid() {
		return nil, appErrors.Validation("Role must be edit or read.", nil)
	}

	topic, err := s.ownedTopic(ctx, requesterUID, topicID)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(handle)
	if owner := s.ownerHandle(ctx, topic.OwnerUID); owner != "" && strings.ToLower(owner) == key {
		return nil, appErrors.SelfShare("You are the owner.", nil)
	}

	uid, err := s.resolver.Resolve(ctx, handle)
	if err != nil {
		return nil, err
	}
	if uid == topic.OwnerUID {
		return nil, appErrors.SelfShare("You are the owner.", nil)
	}

	if _, exists := topic.Grant(handle); exists {
		return nil, appErrors.AlreadyShared("Already shared with this user.", nil)
	}

	now := s.now().UTC()
	grants := append(topic.SharedWith, domain.ShareGrant{
		Handle:   handle,
		UID:      uid,
		Role:     role,
		SharedAt: now,
	})
	return s.writeSharing(ctx, topic, grants, now)
}

// RevokeShare drops every grant for handle and re-derives allowedUids from
// what remains. Revoking a handle that holds no grant changes nothing.
func (s *DefaultService) RevokeShare(ctx context.Context, requesterUID, topicID, handle string) (*domain.Topic, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, appErrors.Validation("Enter User ID.", nil)
	}

	topic, err := s.ownedTopic(ctx, requesterUID, topicID)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(handle)
	remaining := make([]domain.ShareGrant, 0, len(topic.SharedWith))
	for _, g := range topic.SharedWith {
		if strings.ToLower(g.Handle) != key {
			remaining = append(remaining, g)
		}
	}
	if len(remaining) == len(topic.SharedWith) {
		return topic, nil
	}

	return s.writeSharing(ctx, topic, remaining, s.now().UTC())
}

func (s *DefaultService) ListShares(ctx context.Context, requesterUID, topicID string) ([]domain.ShareGrant, error) {
	topic, err := s.ownedTopic(ctx, requesterUID, topicID)
	if err != nil {
		return nil, err
	}
	if topic.SharedWith == nil {
		return []domain.ShareGrant{}, nil
	}
	return topic.SharedWith, nil
}

func (s *DefaultService) writeSharing(ctx context.Context, topic *domain.Topic, grants []domain.ShareGrant, at time.Time) (*domain.Topic, error) {
	sharing := domain.NewSharing(topic.OwnerUID, grants)
	if err := s.topics.UpdateSharing(ctx, topic.ID, sharing, at); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.NotFound("Topic not found", err)
		}
		return nil, err
	}

	sharing.Apply(topic)
	topic.UpdatedAt = at
	s.logger.Infow("topic sharing updated", "topic", topic.ID, "grants", len(grants))
	return topic, nil
}
