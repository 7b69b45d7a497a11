package gateway

import (
	"encoding/json"
	"errors"
)

// Inbound event kinds.
const (
	EventLikeToggle  = "like-toggle"
	EventCommentAdd  = "comment-add"
	EventReplyAdd    = "reply-add"
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
)

// Outbound event kinds.
const (
	EventPostUpdated = "post-updated"
	EventPostDeleted = "post-deleted"
	EventError       = "error"
)

// Error kinds raised by the gateway itself. Transition failures carry the
// mutation kinds.
const (
	KindUnauthorized = "unauthorized"
	KindUnavailable  = "unavailable"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Payload carries the fields of every inbound kind. Comment and Reply are
// accepted as aliases of Text.
type Payload struct {
	PostID    string `json:"postId"`
	CommentID string `json:"commentId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Text      string `json:"text,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Reply     string `json:"reply,omitempty"`
}

// Body returns the submitted text of a comment-add or reply-add event.
func (p *Payload) Body() string {
	switch {
	case p.Text != "":
		return p.Text
	case p.Comment != "":
		return p.Comment
	default:
		return p.Reply
	}
}

type ErrorData struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Event     string `json:"event,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type DeletedData struct {
	ID string `json:"id"`
}

var (
	errMalformed   = errors.New("malformed event")
	errUnknownKind = errors.New("unknown event type")
)

// Decode parses one inbound frame.
func Decode(raw []byte) (*Envelope, *Payload, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, errMalformed
	}

	switch env.Type {
	case EventLikeToggle, EventCommentAdd, EventReplyAdd, EventSubscribe, EventUnsubscribe:
	default:
		return &env, nil, errUnknownKind
	}

	var p Payload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return &env, nil, errMalformed
		}
	}
	return &env, &p, nil
}

// Encode frames data as an outbound event.
func Encode(kind, requestID string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, RequestID: requestID, Data: raw})
}
