// Package model holds the entities shared by the store, the mutation engine
// and the gateway, plus the canonical post view pushed to clients.
package model

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// Post owns its likes and comments. LikeIDs and CommentIDs are ordered.
type Post struct {
	ID          string
	Image       string
	Title       string
	Description string
	CreatedAt   time.Time
	OwnerID     string
	LikeIDs     []string
	CommentIDs  []string
}

type Like struct {
	ID     string
	UserID string
}

// Comment owns its replies. ReplyIDs only ever grows.
type Comment struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
	ReplyIDs  []string
}

type Reply struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// PostPatch updates only the non-nil fields. The owner cannot be patched.
type PostPatch struct {
	Image       *string
	Title       *string
	Description *string
	LikeIDs     *[]string
	CommentIDs  *[]string
}

type CommentPatch struct {
	Text     *string
	ReplyIDs *[]string
}

type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// IDs returns a pointer to a copy of ids, handy for building patches.
func IDs(ids []string) *[]string {
	out := make([]string, len(ids))
	copy(out, ids)
	return &out
}

func String(s string) *string {
	return &s
}
