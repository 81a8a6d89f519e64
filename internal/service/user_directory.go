package service

import (
	"context"
	"errors"

	"github.com/shinyyama/messages-backend/internal/model"
	"github.com/shinyyama/messages-backend/internal/repository"
	"gorm.io/gorm"
)

// UserDirectory resolves user references for the messaging core. Lookup
// tolerates dangling references: a nil or unknown UID resolves to the
// deleted-user sentinel instead of an error.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Lookup(ctx context.Context, uid *string) string
}

type userDirectory struct {
	users repository.UserRepository
}

func NewUserDirectory(users repository.UserRepository) UserDirectory {
	return &userDirectory{users: users}
}

func (d *userDirectory) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (d *userDirectory) Lookup(ctx context.Context, uid *string) string {
	if uid == nil {
		return model.DeletedUserName
	}
	u, err := d.users.FindByUID(ctx, *uid)
	if err != nil {
		return model.DeletedUserName
	}
	return u.Username
}
