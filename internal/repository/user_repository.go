package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// UserRepo reads ticket holders from the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// FindByID fetches a user by id; it returns (nil, nil) when none exists.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
