// Package gateway is the real-time channel: it accepts like, comment and
// reply events over websockets, applies them one at a time per post, and
// broadcasts the resulting post view.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/VitaminP8/postsync/internal/auth"
	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/mutation"
	"github.com/VitaminP8/postsync/internal/subscription"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Transitions is the mutation engine as seen by the gateway.
type Transitions interface {
	ToggleLike(ctx context.Context, postID, userID string) (*model.PostView, error)
	AddComment(ctx context.Context, postID, userID, text string) (*model.PostView, error)
	AddReply(ctx context.Context, postID, commentID, userID, text string) (*model.PostView, error)
}

// Observer is told about every broadcast after clients have been sent it.
type Observer interface {
	PostUpdated(ctx context.Context, view *model.PostView)
	PostDeleted(ctx context.Context, postID string)
}

type Option func(*Gateway)

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

func WithObservers(obs ...Observer) Option {
	return func(g *Gateway) { g.observers = append(g.observers, obs...) }
}

// WithAllowedOrigin restricts upgrades to one Origin. Empty or "*" allows any.
func WithAllowedOrigin(origin string) Option {
	return func(g *Gateway) {
		if origin == "" || origin == "*" {
			g.upgrader.CheckOrigin = func(*http.Request) bool { return true }
			return
		}
		g.upgrader.CheckOrigin = func(r *http.Request) bool {
			return r.Header.Get("Origin") == origin
		}
	}
}

type Gateway struct {
	engine     Transitions
	subs       subscription.Manager
	dispatcher *Dispatcher
	observers  []Observer
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	pumps   sync.WaitGroup
}

func New(engine Transitions, subs subscription.Manager, opts ...Option) *Gateway {
	g := &Gateway{
		engine:  engine,
		subs:    subs,
		logger:  slog.Default(),
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.dispatcher = NewDispatcher(g.logger)
	return g
}

// ServeHTTP upgrades the request and starts the connection's pumps. The
// identity, if any, comes from the request context.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()
	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	userID, _ := auth.GetUserIDFromContext(r.Context())
	c := &client{id: uuid.NewString(), userID: userID, conn: conn}

	// Registration and pumps.Add happen under g.mu so Close either sees this
	// client or this upgrade sees closed.
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		conn.Close()
		return
	}
	c.sub, c.cancel = g.subs.Register(c.id)
	g.clients[c.id] = c
	g.pumps.Add(2)
	g.mu.Unlock()

	g.logger.Info("client connected", "client_id", c.id, "user_id", userID)

	go func() {
		defer g.pumps.Done()
		g.writePump(c)
	}()
	go func() {
		defer g.pumps.Done()
		g.readPump(c)
	}()
}

func (g *Gateway) forget(c *client) {
	g.mu.Lock()
	delete(g.clients, c.id)
	g.mu.Unlock()
	g.logger.Info("client disconnected", "client_id", c.id)
}

// Clients returns the number of open connections.
func (g *Gateway) Clients() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

func (g *Gateway) handle(c *client, raw []byte) {
	env, p, err := Decode(raw)
	if err != nil {
		var kind, reqID string
		if env != nil {
			kind, reqID = env.Type, env.RequestID
		}
		g.sendError(c, string(mutation.KindValidation), err.Error(), kind, reqID)
		return
	}

	if p.PostID == "" {
		g.sendError(c, string(mutation.KindValidation), "postId is required", env.Type, env.RequestID)
		return
	}

	switch env.Type {
	case EventSubscribe:
		g.subs.Subscribe(c.sub, p.PostID)
		return
	case EventUnsubscribe:
		g.subs.Unsubscribe(c.sub, p.PostID)
		return
	}

	if msg, ok := g.authorize(c, p); !ok {
		g.sendError(c, KindUnauthorized, msg, env.Type, env.RequestID)
		return
	}

	ok := g.dispatcher.Enqueue(p.PostID, func() {
		g.apply(c, env, p)
	})
	if !ok {
		g.sendError(c, KindUnavailable, ErrClosed.Error(), env.Type, env.RequestID)
	}
}

// authorize binds the event to the connection's identity. Anonymous
// connections only receive broadcasts.
func (g *Gateway) authorize(c *client, p *Payload) (string, bool) {
	if c.userID == "" {
		return "authentication required", false
	}
	if p.UserID == "" {
		p.UserID = c.userID
		return "", true
	}
	if p.UserID != c.userID {
		return "userId does not match the authenticated user", false
	}
	return "", true
}

// apply runs on the post's queue. The transition completes even if the
// origin has disconnected.
func (g *Gateway) apply(c *client, env *Envelope, p *Payload) {
	ctx := context.Background()

	var view *model.PostView
	var err error
	switch env.Type {
	case EventLikeToggle:
		view, err = g.engine.ToggleLike(ctx, p.PostID, p.UserID)
	case EventCommentAdd:
		view, err = g.engine.AddComment(ctx, p.PostID, p.UserID, p.Body())
	case EventReplyAdd:
		view, err = g.engine.AddReply(ctx, p.PostID, p.CommentID, p.UserID, p.Body())
	}

	if err != nil {
		g.logger.Debug("transition failed",
			"event", env.Type, "post_id", p.PostID, "client_id", c.id, "error", err)
		g.sendError(c, string(mutation.KindOf(err)), message(err), env.Type, env.RequestID)
		return
	}
	g.PublishUpdated(ctx, view)
}

// PublishUpdated broadcasts view and notifies observers.
func (g *Gateway) PublishUpdated(ctx context.Context, view *model.PostView) {
	payload, err := Encode(EventPostUpdated, "", view)
	if err != nil {
		g.logger.Error("could not encode post view", "post_id", view.ID, "error", err)
		return
	}
	g.subs.Publish(view.ID, payload)

	for _, o := range g.observers {
		o.PostUpdated(ctx, view)
	}
}

// PublishDeleted tells clients and observers that postID is gone.
func (g *Gateway) PublishDeleted(ctx context.Context, postID string) {
	payload, err := Encode(EventPostDeleted, "", DeletedData{ID: postID})
	if err != nil {
		g.logger.Error("could not encode deletion", "post_id", postID, "error", err)
		return
	}
	g.subs.Publish(postID, payload)

	for _, o := range g.observers {
		o.PostDeleted(ctx, postID)
	}
}

// Exec runs fn on postID's queue, serialized with the post's transitions.
func (g *Gateway) Exec(ctx context.Context, postID string, fn func(context.Context) error) error {
	return g.dispatcher.Exec(ctx, postID, fn)
}

// Close stops accepting events, drains every post queue and closes all
// connections.
func (g *Gateway) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.dispatcher.Close()
	g.subs.Close()
	g.pumps.Wait()
}

func (g *Gateway) sendError(c *client, kind, msg, event, requestID string) {
	payload, err := Encode(EventError, requestID, ErrorData{
		Kind:      kind,
		Message:   msg,
		Event:     event,
		RequestID: requestID,
	})
	if err != nil {
		return
	}
	if !g.subs.SendTo(c.sub, payload) {
		g.logger.Debug("error not delivered", "client_id", c.id, "event", event)
	}
}

func message(err error) string {
	var me *mutation.Error
	if errors.As(err, &me) {
		return me.Message
	}
	return err.Error()
}
