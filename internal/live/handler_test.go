package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"topicslog/auth"
	"topicslog/internal/docstore"
	"topicslog/internal/docstore/memstore"
	"topicslog/internal/domain"
	"topicslog/internal/livesync"
	"topicslog/internal/topic"
	"topicslog/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type inlineScheduler struct{}

func (inlineScheduler) Submit(_ string, t worker.Task) bool {
	_ = t(context.Background())
	return true
}

type liveEnv struct {
	topics *topic.DefaultService
	server *httptest.Server
}

func newLiveEnv(t *testing.T) *liveEnv {
	t.Helper()
	logger := zap.NewNop().Sugar()
	broker := docstore.NewLocalBroker()
	store := docstore.NewNotifying(memstore.New(), broker, logger)
	topics := topic.NewService(store, topic.NewLocalGuard(), inlineScheduler{}, 0, logger)

	handler := NewHandler(topics, func() *livesync.Syncer {
		return livesync.NewSyncer(store, broker, domain.MaxRows, logger)
	}, nil, DefaultSettings(), logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/live", func(c *gin.Context) {
		c.Set(auth.ContextUID, c.Query("as"))
		handler.Serve(c)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &liveEnv{topics: topics, server: server}
}

func (e *liveEnv) dial(t *testing.T, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/live?as=" + uid
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

type envelope struct {
	Type    string          `json:"type"`
	TopicID string          `json:"topic_id"`
	Items   json.RawMessage `json:"items"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Sort    string          `json:"sort"`
	View    string          `json:"view"`
	raw     []byte
}

// readUntil returns the first message of type kind accepted by match.
func readUntil(t *testing.T, ws *websocket.Conn, kind string, match func(envelope) bool) envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		env.raw = data
		if env.Type == kind && (match == nil || match(env)) {
			return env
		}
	}
}

func rowsOf(t *testing.T, env envelope) []domain.Row {
	t.Helper()
	var rows []domain.Row
	require.NoError(t, json.Unmarshal(env.Items, &rows))
	return rows
}

func topicsOf(t *testing.T, env envelope) []domain.Topic {
	t.Helper()
	var topics []domain.Topic
	require.NoError(t, json.Unmarshal(env.Items, &topics))
	return topics
}

func send(t *testing.T, ws *websocket.Conn, cmd Command) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(cmd))
}

func TestLive_TopicsAndRowsFeeds(t *testing.T) {
	e := newLiveEnv(t)
	ctx := context.Background()

	journal, err := e.topics.CreateTopic(ctx, "me", "Journal", nil)
	require.NoError(t, err)
	_, err = e.topics.CreateRow(ctx, "me", journal.ID, map[string]string{"date": "2024-01-05", "title": "first"})
	require.NoError(t, err)

	ws := e.dial(t, "me")

	msg := readUntil(t, ws, MsgTopics, nil)
	topics := topicsOf(t, msg)
	require.Len(t, topics, 1)
	assert.Equal(t, journal.ID, topics[0].ID)

	send(t, ws, Command{Type: CmdOpenTopic, TopicID: journal.ID})
	readUntil(t, ws, MsgTopic, nil)
	msg = readUntil(t, ws, MsgRows, nil)
	assert.Equal(t, journal.ID, msg.TopicID)
	assert.Equal(t, "updated_desc", msg.Sort)
	assert.Equal(t, "table", msg.View)
	require.Len(t, rowsOf(t, msg), 1)

	// a write elsewhere reaches the open feed
	_, err = e.topics.CreateRow(ctx, "me", journal.ID, map[string]string{"date": "2024-01-01", "title": "second"})
	require.NoError(t, err)
	readUntil(t, ws, MsgRows, func(env envelope) bool { return len(rowsOf(t, env)) == 2 })

	send(t, ws, Command{Type: CmdSetSort, Sort: "date_asc"})
	msg = readUntil(t, ws, MsgRows, func(env envelope) bool { return env.Sort == "date_asc" })
	rows := rowsOf(t, msg)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01", rows[0].SortDate)

	send(t, ws, Command{Type: CmdSearchRows, Q: "SECOND"})
	msg = readUntil(t, ws, MsgRows, func(env envelope) bool { return len(rowsOf(t, env)) == 1 })
	assert.Equal(t, "second", rowsOf(t, msg)[0].Values["title"])

	send(t, ws, Command{Type: CmdToggleView})
	readUntil(t, ws, MsgRows, func(env envelope) bool { return env.View == "card" })
}

func TestLive_TopicFilterAndSearch(t *testing.T) {
	e := newLiveEnv(t)
	ctx := context.Background()

	_, err := e.topics.CreateTopic(ctx, "me", "Journal", nil)
	require.NoError(t, err)
	_, err = e.topics.CreateTopic(ctx, "me", "Work", nil)
	require.NoError(t, err)

	ws := e.dial(t, "me")
	readUntil(t, ws, MsgTopics, func(env envelope) bool { return len(topicsOf(t, env)) == 2 })

	send(t, ws, Command{Type: CmdSearchTopics, Q: "jour"})
	msg := readUntil(t, ws, MsgTopics, func(env envelope) bool { return len(topicsOf(t, env)) == 1 })
	assert.Equal(t, "Journal", topicsOf(t, msg)[0].Name)

	send(t, ws, Command{Type: CmdSetFilter, Filter: "shared"})
	readUntil(t, ws, MsgTopics, func(env envelope) bool { return len(topicsOf(t, env)) == 0 })
}

func TestLive_Errors(t *testing.T) {
	e := newLiveEnv(t)
	ctx := context.Background()

	private, err := e.topics.CreateTopic(ctx, "owner", "Private", nil)
	require.NoError(t, err)

	ws := e.dial(t, "me")
	readUntil(t, ws, MsgTopics, nil)

	send(t, ws, Command{Type: CmdOpenTopic, TopicID: private.ID})
	msg := readUntil(t, ws, MsgError, nil)
	assert.Equal(t, "You don't have access to this topic.", msg.Message)

	send(t, ws, Command{Type: CmdOpenTopic, TopicID: "missing"})
	msg = readUntil(t, ws, MsgError, nil)
	assert.Equal(t, "Topic not found", msg.Message)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = readUntil(t, ws, MsgError, nil)
	assert.Equal(t, "Malformed command", msg.Message)

	send(t, ws, Command{Type: "dance"})
	msg = readUntil(t, ws, MsgError, nil)
	assert.Equal(t, "Unknown command dance", msg.Message)
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"https://app.example.com"})

	req := httptest.NewRequest("GET", "/live", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, checkOrigin(nil)(req))
}
