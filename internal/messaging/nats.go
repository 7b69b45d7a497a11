// Package messaging mirrors gateway broadcasts onto NATS so other services
// can follow post changes.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/nats-io/nats.go"
)

const (
	SubjectPostUpdated = "post.updated"
	SubjectPostDeleted = "post.deleted"
)

// PostUpdatedEvent is the payload of post.updated.
type PostUpdatedEvent struct {
	PostID    string          `json:"post_id"`
	Likes     int             `json:"likes"`
	Comments  int             `json:"comments"`
	View      *model.PostView `json:"view"`
	Timestamp string          `json:"timestamp"`
}

// PostDeletedEvent is the payload of post.deleted.
type PostDeletedEvent struct {
	PostID    string `json:"post_id"`
	Timestamp string `json:"timestamp"`
}

// Conn is the part of a NATS connection the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	conn   Conn
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(conn Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger, now: time.Now}
}

// Connect dials url and returns the connection for NewPublisher.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("postsync"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if logger != nil {
		logger.Info("NATS connected", "url", url)
	}
	return nc, nil
}

func (p *Publisher) PostUpdated(_ context.Context, view *model.PostView) {
	comments := 0
	for _, c := range view.Comments {
		comments += 1 + len(c.Replies)
	}
	p.publish(SubjectPostUpdated, view.ID, PostUpdatedEvent{
		PostID:    view.ID,
		Likes:     len(view.Likes),
		Comments:  comments,
		View:      view,
		Timestamp: p.timestamp(),
	})
}

func (p *Publisher) PostDeleted(_ context.Context, postID string) {
	p.publish(SubjectPostDeleted, postID, PostDeletedEvent{
		PostID:    postID,
		Timestamp: p.timestamp(),
	})
}

func (p *Publisher) timestamp() string {
	return p.now().UTC().Format("2006-01-02T15:04:05Z")
}

func (p *Publisher) publish(subject, postID string, event interface{}) {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("could not encode event", "subject", subject, "post_id", postID, "error", err)
		return
	}
	if err := p.conn.Publish(subject, eventJSON); err != nil {
		p.logger.Warn("publish failed", "subject", subject, "post_id", postID, "error", err)
	}
}

// Subscribe calls handler with the raw payload of every post.* event.
func Subscribe(nc *nats.Conn, handler func(subject string, data []byte)) (*nats.Subscription, error) {
	return nc.Subscribe("post.*", func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
}
