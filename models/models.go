package models

import "time"

// Table models for the relational document store. List membership is a
// nullable parent key plus a position, so a row detached from its parent
// simply stops being part of the list.

type User struct {
	ID           string `gorm:"primary_key;type:varchar(36)"`
	Username     string `gorm:"unique_index;not null"`
	Email        string `gorm:"unique_index;not null"`
	PasswordHash string
	CreatedAt    time.Time
}

type Post struct {
	ID          string `gorm:"primary_key;type:varchar(36)"`
	Image       string
	Title       string
	Description string
	OwnerID     string `gorm:"type:varchar(36);index;not null"`
	CreatedAt   time.Time
}

type Like struct {
	ID       string  `gorm:"primary_key;type:varchar(36)"`
	UserID   string  `gorm:"type:varchar(36);not null"`
	PostID   *string `gorm:"type:varchar(36);index"`
	Position int
}

type Comment struct {
	ID        string  `gorm:"primary_key;type:varchar(36)"`
	UserID    string  `gorm:"type:varchar(36);not null"`
	Text      string  `gorm:"type:text;not null"`
	PostID    *string `gorm:"type:varchar(36);index"`
	Position  int
	CreatedAt time.Time
}

type Reply struct {
	ID        string  `gorm:"primary_key;type:varchar(36)"`
	UserID    string  `gorm:"type:varchar(36);not null"`
	Text      string  `gorm:"type:text;not null"`
	CommentID *string `gorm:"type:varchar(36);index"`
	Position  int
	CreatedAt time.Time
}

// All lists every table model, in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Like{}, &Comment{}, &Reply{}}
}
