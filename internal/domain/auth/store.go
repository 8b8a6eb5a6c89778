package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Role         string
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, email, password_hash, role
    FROM users
    WHERE email = $1
  `, email).Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.Role)
	return user, err
}
