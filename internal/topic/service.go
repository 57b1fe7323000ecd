// Package topic implements topics and their rows: creation, row writes with
// their derived sort key, permission checks and the freshness touch.
package topic

import (
	"context"
	"errors"
	"strings"
	"time"

	"topicslog/internal/acl"
	"topicslog/internal/docstore"
	"topicslog/internal/domain"
	appErrors "topicslog/internal/errors"
	"topicslog/internal/export"
	"topicslog/internal/worker"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Store interface {
	docstore.TopicStore
	docstore.RowStore
}

// Scheduler runs best-effort background work.
type Scheduler interface {
	Submit(name string, t worker.Task) bool
}

// TopicView is a topic together with the caller's access to it.
type TopicView struct {
	domain.Topic
	Role  string `json:"role"`
	Owned bool   `json:"owned"`
}

type Service interface {
	CreateTopic(ctx context.Context, ownerUID, name string, columns []domain.Column) (*domain.Topic, error)
	OpenTopic(ctx context.Context, uid, topicID string) (*TopicView, error)
	ListTopics(ctx context.Context, uid string, filter domain.TopicFilter, query string) ([]TopicView, error)
	CreateRow(ctx context.Context, uid, topicID string, values map[string]string) (*domain.Row, error)
	UpdateRow(ctx context.Context, uid, topicID, rowID string, values map[string]string) (*domain.Row, error)
	DeleteRow(ctx context.Context, uid, topicID, rowID string) error
	ListRows(ctx context.Context, uid, topicID string, order domain.RowOrder, query string) ([]domain.Row, error)
	Export(ctx context.Context, uid, topicID string, order domain.RowOrder, query string) (string, string, error)
}

type DefaultService struct {
	store     Store
	guard     Guard
	scheduler Scheduler
	limit     int
	logger    *zap.SugaredLogger
	now       func() time.Time
	newID     func() string
}

func NewService(store Store, guard Guard, scheduler Scheduler, limit int, logger *zap.SugaredLogger) *DefaultService {
	if limit <= 0 || limit > domain.MaxRows {
		limit = domain.MaxRows
	}
	return &DefaultService{
		store:     store,
		guard:     guard,
		scheduler: scheduler,
		limit:     limit,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return ksuid.New().String() },
	}
}

func (s *DefaultService) CreateTopic(ctx context.Context, ownerUID, name string, columns []domain.Column) (*domain.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Validation("Enter topic name.", nil)
	}
	if len(columns) == 0 {
		columns = domain.DefaultColumns()
	}
	if err := validateColumns(columns); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	topic := &domain.Topic{
		ID:        s.newID(),
		Name:      name,
		OwnerUID:  ownerUID,
		Columns:   columns,
		CreatedAt: now,
		UpdatedAt: now,
	}
	domain.NewSharing(ownerUID, nil).Apply(topic)

	if err := s.store.CreateTopic(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func validateColumns(columns []domain.Column) error {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return appErrors.Validation("Column id is required.", nil)
		}
		if _, dup := seen[id]; dup {
			return appErrors.Validation("Column ids must be unique.", nil)
		}
		seen[id] = struct{}{}
		switch c.Type {
		case domain.ColumnDate, domain.ColumnText, domain.ColumnRichText:
		default:
			return appErrors.Validation("Unknown column type "+string(c.Type)+".", nil)
		}
	}
	if _, ok := seen["date"]; !ok {
		return appErrors.Validation("A topic needs a date column.", nil)
	}
	return nil
}

// readable loads topicID and checks that uid may read it.
func (s *DefaultService) readable(ctx context.Context, uid, topicID string) (*domain.Topic, error) {
	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.NotFound("Topic not found", err)
		}
		return nil, err
	}
	if !acl.CanRead(topic, uid) {
		return nil, appErrors.Forbidden("You don't have access to this topic.", nil)
	}
	return topic, nil
}

func (s *DefaultService) writable(ctx context.Context, uid, topicID string) (*domain.Topic, error) {
	topic, err := s.readable(ctx, uid, topicID)
	if err != nil {
		return nil, err
	}
	if !acl.CanWrite(topic, uid) {
		return nil, appErrors.Forbidden("You have read-only access to this topic.", nil)
	}
	return topic, nil
}

func view(topic domain.Topic, uid string) TopicView {
	return TopicView{
		Topic: topic,
		Role:  acl.RoleOf(&topic, uid),
		Owned: acl.IsOwner(&topic, uid),
	}
}

func (s *DefaultService) OpenTopic(ctx context.Context, uid, topicID string) (*TopicView, error) {
	topic, err := s.readable(ctx, uid, topicID)
	if err != nil {
		return nil, err
	}
	v := view(*topic, uid)
	return &v, nil
}

func (s *DefaultService) ListTopics(ctx context.Context, uid string, filter domain.TopicFilter, query string) ([]TopicView, error) {
	topics, err := s.store.TopicsForUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	topics = domain.FilterTopics(topics, uid, filter, query)
	views := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		views = append(views, view(t, uid))
	}
	return views, nil
}

// cleanValues keeps only the topic's columns and checks required ones. It
// runs before any write is issued.
func cleanValues(topic *domain.Topic, values map[string]string) (map[string]string, error) {
	columns := topic.Columns
	if len(columns) == 0 {
		columns = domain.DefaultColumns()
	}

	out := make(map[string]string, len(columns))
	for _, c := range columns {
		v := values[c.ID]
		if c.Type != domain.ColumnRichText {
			v = strings.TrimSpace(v)
		}
		if c.Required && strings.TrimSpace(v) == "" {
			return nil, appErrors.Validation(c.Name+" is required.", nil)
		}
		if c.Type == domain.ColumnDate && v != "" {
			if _, err := time.Parse(dateLayout, v); err != nil {
				return nil, appErrors.Validation(c.Name+" must be a date like 2024-01-31.", err)
			}
		}
		out[c.ID] = v
	}
	return out, nil
}

func (s *DefaultService) CreateRow(ctx context.Context, uid, topicID string, values map[string]string) (*domain.Row, error) {
	topic, err := s.writable(ctx, uid, topicID)
	if err != nil {
		return nil, err
	}
	clean, err := cleanValues(topic, values)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, func(sub string) string { return createRowKey(uid, topicID, sub) })
	if err != nil {
		return nil, err
	}
	defer release()

	row, err := s.store.CreateRow(ctx, topicID, s.newID(), domain.NewRowWrite(clean, uid, s.now().UTC()))
	if err != nil {
		return nil, err
	}

	s.touch(topicID)
	return row, nil
}

// UpdateRow overwrites the row unconditionally: the last write wins.
func (s *DefaultService) UpdateRow(ctx context.Context, uid, topicID, rowID string, values map[string]string) (*domain.Row, error) {
	topic, err := s.writable(ctx, uid, topicID)
	if err != nil {
		return nil, err
	}
	clean, err := cleanValues(topic, values)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, func(sub string) string { return updateRowKey(uid, rowID, sub) })
	if err != nil {
		return nil, err
	}
	defer release()

	row, err := s.store.UpdateRow(ctx, topicID, rowID, domain.NewRowWrite(clean, uid, s.now().UTC()))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, appErrors.NotFound("Row not found", err)
		}
		return nil, err
	}

	s.touch(topicID)
	return row, nil
}

func (s *DefaultService) DeleteRow(ctx context.Context, uid, topicID, rowID string) error {
	if _, err := s.writable(ctx, uid, topicID); err != nil {
		return err
	}

	if err := s.store.DeleteRow(ctx, topicID, rowID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return appErrors.NotFound("Row not found", err)
		}
		return err
	}

	s.touch(topicID)
	return nil
}

func (s *DefaultService) ListRows(ctx context.Context, uid, topicID string, order domain.RowOrder, query string) ([]domain.Row, error) {
	if _, err := s.readable(ctx, uid, topicID); err != nil {
		return nil, err
	}

	rows, err := s.store.Rows(ctx, topicID, order, s.limit)
	if err != nil {
		return nil, err
	}
	return export.Filter(rows, query), nil
}

// Export renders the rows a ListRows with the same arguments returns. It
// returns the file name and the CSV body.
func (s *DefaultService) Export(ctx context.Context, uid, topicID string, order domain.RowOrder, query string) (string, string, error) {
	topic, err := s.readable(ctx, uid, topicID)
	if err != nil {
		return "", "", err
	}

	rows, err := s.store.Rows(ctx, topicID, order, s.limit)
	if err != nil {
		return "", "", err
	}
	return export.Filename(topic.Name), export.CSV(export.Filter(rows, query)), nil
}

// acquire holds the in-flight guard for the submission tagged on ctx.
func (s *DefaultService) acquire(ctx context.Context, key func(submission string) string) (func(), error) {
	submission := submissionFrom(ctx)
	if submission == "" {
		return func() {}, nil
	}
	release, ok, err := s.guard.Acquire(ctx, key(submission))
	if err != nil {
		return nil, appErrors.Unavailable("Cannot save right now", err)
	}
	if !ok {
		return nil, appErrors.InFlight("Already saving. Please wait.", nil)
	}
	return release, nil
}

// touch bumps the topic's updatedAt in the background. It is a freshness
// hint for the topics list; failures are logged by the pool and dropped.
func (s *DefaultService) touch(topicID string) {
	at := s.now().UTC()
	ok := s.scheduler.Submit("touch-topic", func(ctx context.Context) error {
		return s.store.TouchTopic(ctx, topicID, at)
	})
	if !ok {
		s.logger.Debugw("topic touch skipped", "topic", topicID)
	}
}
