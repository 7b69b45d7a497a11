package user

import (
	"context"

	"github.com/VitaminP8/postsync/internal/model"
)

type UserStorage interface {
	RegisterUser(ctx context.Context, username, email, password string) (*model.User, error)
	LoginUser(ctx context.Context, email, password string) (string, error) // JWT
	LogoutUser(token string) error
}
