package live

import (
	"topicslog/internal/domain"
	"topicslog/internal/topic"
)

// Client commands.
const (
	CmdOpenTopic    = "open_topic"
	CmdCloseTopic   = "close_topic"
	CmdSetSort      = "set_sort"
	CmdSetView      = "set_view"
	CmdToggleView   = "toggle_view"
	CmdSetFilter    = "set_filter"
	CmdSearchTopics = "search_topics"
	CmdSearchRows   = "search_rows"

	// set by the reader for frames that are not valid JSON
	cmdMalformed = "\x00malformed"
)

// Server messages.
const (
	MsgTopics = "topics"
	MsgTopic  = "topic"
	MsgRows   = "rows"
	MsgError  = "error"
)

type Command struct {
	Type    string `json:"type"`
	TopicID string `json:"topic_id,omitempty"`
	Sort    string `json:"sort,omitempty"`
	View    string `json:"view,omitempty"`
	Filter  string `json:"filter,omitempty"`
	Q       string `json:"q"`
}

type TopicsMessage struct {
	Type     string         `json:"type"`
	Items    []domain.Topic `json:"items"`
	Filter   string         `json:"filter"`
	Degraded bool           `json:"degraded"`
	Error    string         `json:"error,omitempty"`
}

type TopicMessage struct {
	Type  string          `json:"type"`
	Topic topic.TopicView `json:"topic"`
}

type RowsMessage struct {
	Type     string       `json:"type"`
	TopicID  string       `json:"topic_id"`
	Items    []domain.Row `json:"items"`
	Sort     string       `json:"sort"`
	View     string       `json:"view"`
	Degraded bool         `json:"degraded"`
	Error    string       `json:"error,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
