package repository

import (
	"context"

	"github.com/finlend/origination-engine/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	query := `SELECT uid, email, display_name, role, branch, created_at FROM users WHERE uid = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, uid)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) ListByRoles(ctx context.Context, roles ...string) ([]*domain.User, error) {
	query := `SELECT uid, email, display_name, role, branch, created_at FROM users WHERE role = ANY($1)`

	var users []*domain.User
	err := r.db.SelectContext(ctx, &users, query, pq.Array(roles))
	if err != nil {
		return nil, err
	}

	return users, nil
}
