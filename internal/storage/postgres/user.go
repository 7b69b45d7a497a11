package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/models"
	"github.com/jinzhu/gorm"
)

func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	var u models.User
	if err := s.db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return toUser(&u), nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	var u models.User
	if err := s.db.Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return toUser(&u), nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	var u models.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return toUser(&u), nil
}

func (s *Store) CreateUser(_ context.Context, u *model.User) (string, error) {
	rec := &models.User{
		ID:           s.ids.NewID(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    s.now().UTC(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := userTaken(tx, "", rec.Username, rec.Email); err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return "", fmt.Errorf("could not create user: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	var rec models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			return notFound(err)
		}
		if patch.Username != nil {
			rec.Username = *patch.Username
		}
		if patch.Email != nil {
			rec.Email = *patch.Email
		}
		if patch.PasswordHash != nil {
			rec.PasswordHash = *patch.PasswordHash
		}
		if err := userTaken(tx, id, rec.Username, rec.Email); err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not update user: %w", err)
	}
	return toUser(&rec), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	res := s.db.Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("could not delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func userTaken(tx *gorm.DB, selfID, username, email string) error {
	var count int
	q := tx.Model(&models.User{}).Where("(username = ? OR LOWER(email) = LOWER(?))", username, email)
	if selfID != "" {
		q = q.Where("id <> ?", selfID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrConflict
	}
	return nil
}
