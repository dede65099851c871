package db

import (
	"context"

	"procurement/models"
)

const userColumns = `id, email, password, first_name, last_name, company, phone, role, is_active, created_at, updated_at`

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (email, password, first_name, last_name, company, phone, role, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Company, u.Phone, u.Role, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	if err := s.db.GetContext(ctx, u, query, email); err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Storage) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := s.db.GetContext(ctx, u, query, id); err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Storage) UpdateUserProfile(ctx context.Context, u *models.User) error {
	query := `
        UPDATE users
        SET first_name = $1, last_name = $2, company = $3, phone = $4, updated_at = NOW()
        WHERE id = $5
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, u.FirstName, u.LastName, u.Company, u.Phone, u.ID).
		Scan(&u.UpdatedAt)
	return translate(err)
}

func (s *Storage) UpdateUserPassword(ctx context.Context, id int64, hash string) error {
	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	res, err := s.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

// usersByID loads users keyed by id; password hashes are blanked.
func (s *Storage) usersByID(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	var users []models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (?)`
	if err := s.selectIn(ctx, &users, query, uniqueIDs(ids)); err != nil {
		return nil, err
	}
	out := make(map[int64]*models.User, len(users))
	for i := range users {
		users[i].PasswordHash = ""
		out[users[i].ID] = &users[i]
	}
	return out, nil
}
