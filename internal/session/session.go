// Package session holds the per-connection view state: which topic is open,
// how its rows are ordered and displayed, and the last good data of each
// live feed.
package session

import (
	"context"

	"topicslog/internal/domain"
	"topicslog/internal/export"
	"topicslog/internal/livesync"
)

type View string

const (
	ViewTable View = "table"
	ViewCard  View = "card"
)

// FeedState is the health of one live feed.
type FeedState struct {
	Degraded bool
	Err      error
}

// Session is created when a connection authenticates and reset when it goes
// away. It is not safe for concurrent use; its connection loop is its only
// caller.
type Session struct {
	uid    string
	syncer *livesync.Syncer

	topics      []domain.Topic
	topicsState FeedState
	rows        []domain.Row
	rowsState   FeedState

	current     *domain.Topic
	view        View
	order       domain.RowOrder
	filter      domain.TopicFilter
	topicSearch string
	rowSearch   string
}

func New(uid string, syncer *livesync.Syncer) *Session {
	return &Session{
		uid:    uid,
		syncer: syncer,
		view:   ViewTable,
		order:  domain.DefaultRowOrder,
		filter: domain.FilterAll,
	}
}

// Start opens the topics feed.
func (s *Session) Start(ctx context.Context) error {
	return s.syncer.SubscribeTopics(ctx, s.uid)
}

// Reset closes every feed and forgets all state.
func (s *Session) Reset() {
	s.syncer.Close()
	*s = Session{
		uid:    s.uid,
		syncer: s.syncer,
		view:   ViewTable,
		order:  domain.DefaultRowOrder,
		filter: domain.FilterAll,
	}
}

func (s *Session) UID() string { return s.uid }

// Topics and Rows are the live feeds to select on. Either is nil while
// closed.
func (s *Session) Topics() <-chan livesync.Update[domain.Topic] { return s.syncer.Topics() }
func (s *Session) Rows() <-chan livesync.Update[domain.Row] { return s.syncer.Rows() }

// ApplyTopics replaces the topics projection. A degraded update keeps the
// last good list.
func (s *Session) ApplyTopics(u livesync.Update[domain.Topic]) {
	if u.Degraded() {
		s.topicsState = FeedState{Degraded: true, Err: u.Err}
		return
	}
	s.topics = u.Items
	s.topicsState = FeedState{}

	// keep the open topic's metadata (name, sharing) current
	if s.current != nil {
		for i := range u.Items {
			if u.Items[i].ID == s.current.ID {
				t := u.Items[i]
				s.current = &t
				break
			}
		}
	}
}

// ApplyRows replaces the rows projection of the open topic. A degraded
// update keeps the last good rows.
func (s *Session) ApplyRows(u livesync.Update[domain.Row]) {
	if s.current == nil {
		return
	}
	if u.Degraded() {
		s.rowsState = FeedState{Degraded: true, Err: u.Err}
		return
	}
	s.rows = u.Items
	s.rowsState = FeedState{}
}

// OpenTopic shows topic with a fresh row search, the default order and the
// table view, and subscribes to its rows.
func (s *Session) OpenTopic(ctx context.Context, topic *domain.Topic) error {
	t := *topic
	s.current = &t
	s.rowSearch = ""
	s.order = domain.DefaultRowOrder
	s.view = ViewTable
	s.rows = nil
	s.rowsState = FeedState{}
	return s.syncer.SubscribeRows(ctx, s.uid, t.ID, s.order)
}

func (s *Session) CloseTopic() {
	s.syncer.StopRows()
	s.current = nil
	s.rows = nil
	s.rowsState = FeedState{}
	s.rowSearch = ""
}

// SetOrder re-subscribes the rows feed with the new order.
func (s *Session) SetOrder(ctx context.Context, order domain.RowOrder) error {
	s.order = order
	if s.current == nil {
		return nil
	}
	s.rowsState = FeedState{}
	return s.syncer.SubscribeRows(ctx, s.uid, s.current.ID, order)
}

func (s *Session) ToggleView() View {
	if s.view == ViewTable {
		s.view = ViewCard
	} else {
		s.view = ViewTable
	}
	return s.view
}

func (s *Session) SetView(v View) {
	if v == ViewCard {
		s.view = ViewCard
		return
	}
	s.view = ViewTable
}

func (s *Session) SetFilter(f domain.TopicFilter) { s.filter = f }
func (s *Session) SetTopicSearch(q string) { s.topicSearch = q }
func (s *Session) SetRowSearch(q string) { s.rowSearch = q }

func (s *Session) Current() *domain.Topic { return s.current }
func (s *Session) View() View { return s.view }
func (s *Session) Order() domain.RowOrder { return s.order }
func (s *Session) Filter() domain.TopicFilter { return s.filter }
func (s *Session) TopicsState() FeedState { return s.topicsState }
func (s *Session) RowsState() FeedState { return s.rowsState }

// VisibleTopics applies the ownership filter and the name search.
func (s *Session) VisibleTopics() []domain.Topic {
	return domain.FilterTopics(s.topics, s.uid, s.filter, s.topicSearch)
}

// VisibleRows applies the row search. Exports use the same rows.
func (s *Session) VisibleRows() []domain.Row {
	return export.Filter(s.rows, s.rowSearch)
}
