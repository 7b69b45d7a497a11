package postgres

import (
	"time"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/models"
	"github.com/jinzhu/gorm"
)

// Store is the relational document store.
type Store struct {
	db  *gorm.DB
	ids storage.IDGenerator
	now func() time.Time
}

type Option func(*Store)

func WithIDGenerator(g storage.IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, ids: storage.UUIDv7Generator{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Store = (*Store)(nil)

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

// notFound maps gorm's missing-record error onto the storage sentinel.
func notFound(err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return storage.ErrNotFound
	}
	return err
}

const (
	likesTable    = "likes"
	commentsTable = "comments"
	repliesTable  = "replies"
)

func toUser(u *models.User) *model.User {
	return &model.User{ID: u.ID, Username: u.Username, Email: u.Email, PasswordHash: u.PasswordHash}
}

func toLike(l *models.Like) *model.Like {
	return &model.Like{ID: l.ID, UserID: l.UserID}
}

func toReply(r *models.Reply) *model.Reply {
	return &model.Reply{ID: r.ID, UserID: r.UserID, Text: r.Text, CreatedAt: r.CreatedAt}
}

// childIDs returns the ids of rows attached to parentID, in list order.
func childIDs(tx *gorm.DB, table, column, parentID string) ([]string, error) {
	ids := []string{}
	err := tx.Table(table).Where(column+" = ?", parentID).Order("position").Pluck("id", &ids).Error
	return ids, err
}

// attach makes ids the ordered child list of parentID: every current child
// is detached, then each listed id is attached at its index. A listed id
// that does not exist fails the whole operation with ErrNotFound.
func attach(tx *gorm.DB, table, column, parentID string, ids []string) error {
	err := tx.Table(table).Where(column+" = ?", parentID).
		Updates(map[string]interface{}{column: nil, "position": 0}).Error
	if err != nil {
		return err
	}
	for i, id := range ids {
		res := tx.Table(table).Where("id = ?", id).
			Updates(map[string]interface{}{column: parentID, "position": i})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
	}
	return nil
}
