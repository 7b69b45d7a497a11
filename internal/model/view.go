package model

import "time"

// UserRef is a user reference expanded to its display fields.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type LikeView struct {
	ID   string  `json:"id"`
	User UserRef `json:"user"`
}

type ReplyView struct {
	ID   string    `json:"id"`
	User UserRef   `json:"user"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

type CommentView struct {
	ID      string      `json:"id"`
	User    UserRef     `json:"user"`
	Text    string      `json:"text"`
	Date    time.Time   `json:"date"`
	Replies []ReplyView `json:"replies"`
}

// PostView is the canonical post representation: a post with its likes,
// comments and nested replies resolved, every user reference expanded.
// It is what every post-updated broadcast carries.
type PostView struct {
	ID          string        `json:"id"`
	Image       string        `json:"image"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Date        time.Time     `json:"date"`
	User        UserRef       `json:"user"`
	Likes       []LikeView    `json:"likes"`
	Comments    []CommentView `json:"comments"`
}

// LikedBy reports whether userID has a like on the post.
func (v *PostView) LikedBy(userID string) bool {
	for _, l := range v.Likes {
		if l.User.ID == userID {
			return true
		}
	}
	return false
}

// Comment returns the resolved comment with the given id, or nil.
func (v *PostView) Comment(id string) *CommentView {
	for i := range v.Comments {
		if v.Comments[i].ID == id {
			return &v.Comments[i]
		}
	}
	return nil
}
