// Package live serves the live feeds over a websocket. Each connection owns
// one session; a single loop applies feed updates and client commands and
// is the only writer to the socket.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"topicslog/auth"
	"topicslog/internal/domain"
	appErrors "topicslog/internal/errors"
	"topicslog/internal/livesync"
	"topicslog/internal/session"
	"topicslog/internal/topic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Settings struct {
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	PingTimeout  time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingTimeout:  30 * time.Second,
	}
}

// TopicOpener checks access before a topic's rows are subscribed.
type TopicOpener interface {
	OpenTopic(ctx context.Context, uid, topicID string) (*topic.TopicView, error)
}

type Handler struct {
	topics    TopicOpener
	newSyncer func() *livesync.Syncer
	upgrader  websocket.Upgrader
	settings  Settings
	logger    *zap.SugaredLogger
}

func NewHandler(topics TopicOpener, newSyncer func() *livesync.Syncer, allowedOrigins []string, settings Settings, logger *zap.SugaredLogger) *Handler {
	h := &Handler{
		topics:    topics,
		newSyncer: newSyncer,
		settings:  settings,
		logger:    logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
	return h
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Serve handles GET /live. It must run behind auth.AuthMiddleWare.
func (h *Handler) Serve(c *gin.Context) {
	uid := auth.UID(c)
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the response
		h.logger.Infow("websocket upgrade failed", "uid", uid, "error", err)
		return
	}
	defer ws.Close()

	h.logger.Infow("live connection opened", "uid", uid)
	h.run(c.Request.Context(), ws, uid)
	h.logger.Infow("live connection closed", "uid", uid)
}

func (h *Handler) run(ctx context.Context, ws *websocket.Conn, uid string) {
	handleCtx, handleCancel := context.WithCancel(ctx)
	defer handleCancel()

	sess := session.New(uid, h.newSyncer())
	defer sess.Reset()

	commands := make(chan Command)
	go h.read(handleCtx, handleCancel, ws, commands)

	c := &conn{h: h, ws: ws, sess: sess}
	if err := sess.Start(handleCtx); err != nil {
		c.sendError(err)
	}

	ping := time.NewTicker(h.settings.PingTimeout)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-handleCtx.Done():
			return
		case u := <-sess.Topics():
			sess.ApplyTopics(u)
			err = c.sendTopics()
		case u := <-sess.Rows():
			sess.ApplyRows(u)
			err = c.sendRows()
		case cmd := <-commands:
			err = c.handle(handleCtx, cmd)
		case <-ping.C:
			err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.settings.WriteTimeout))
		}
		if err != nil {
			h.logger.Infow("live write failed", "uid", uid, "error", err)
			return
		}
	}
}

func (h *Handler) read(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, commands chan<- Command) {
	defer cancel()

	ws.SetReadDeadline(time.Now().Add(h.settings.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.settings.ReadTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debugw("live read ended", "error", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(h.settings.ReadTimeout))

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			cmd = Command{Type: cmdMalformed}
		}

		select {
		case <-ctx.Done():
			return
		case commands <- cmd:
		}
	}
}

// conn writes to one socket on behalf of its session. Only the run loop
// uses it.
type conn struct {
	h    *Handler
	ws   *websocket.Conn
	sess *session.Session
}

func (c *conn) write(v any) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.h.settings.WriteTimeout))
	return c.ws.WriteJSON(v)
}

func (c *conn) sendError(err error) error {
	return c.write(ErrorMessage{Type: MsgError, Message: appErrors.From(err).Message})
}

func (c *conn) sendTopics() error {
	state := c.sess.TopicsState()
	msg := TopicsMessage{
		Type:     MsgTopics,
		Items:    c.sess.VisibleTopics(),
		Filter:   string(c.sess.Filter()),
		Degraded: state.Degraded,
	}
	if state.Err != nil {
		msg.Error = appErrors.From(state.Err).Message
	}
	return c.write(msg)
}

func (c *conn) sendRows() error {
	current := c.sess.Current()
	if current == nil {
		return nil
	}
	state := c.sess.RowsState()
	msg := RowsMessage{
		Type:     MsgRows,
		TopicID:  current.ID,
		Items:    c.sess.VisibleRows(),
		Sort:     c.sess.Order().Name(),
		View:     string(c.sess.View()),
		Degraded: state.Degraded,
	}
	if state.Err != nil {
		msg.Error = appErrors.From(state.Err).Message
	}
	return c.write(msg)
}

func (c *conn) handle(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case CmdOpenTopic:
		view, err := c.h.topics.OpenTopic(ctx, c.sess.UID(), cmd.TopicID)
		if err != nil {
			return c.sendError(err)
		}
		if err := c.sess.OpenTopic(ctx, &view.Topic); err != nil {
			return c.sendError(err)
		}
		return c.write(TopicMessage{Type: MsgTopic, Topic: *view})
	case CmdCloseTopic:
		c.sess.CloseTopic()
		return nil
	case CmdSetSort:
		if err := c.sess.SetOrder(ctx, domain.ParseRowOrder(cmd.Sort)); err != nil {
			return c.sendError(err)
		}
		return nil
	case CmdSetView:
		c.sess.SetView(session.View(cmd.View))
		return c.sendRows()
	case CmdToggleView:
		c.sess.ToggleView()
		return c.sendRows()
	case CmdSetFilter:
		c.sess.SetFilter(domain.ParseTopicFilter(cmd.Filter))
		return c.sendTopics()
	case CmdSearchTopics:
		c.sess.SetTopicSearch(cmd.Q)
		return c.sendTopics()
	case CmdSearchRows:
		c.sess.SetRowSearch(cmd.Q)
		return c.sendRows()
	case cmdMalformed:
		return c.sendError(appErrors.Validation("Malformed command", nil))
	}
	return c.sendError(appErrors.Validation("Unknown command "+cmd.Type, nil))
}
