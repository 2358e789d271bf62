package database

import (
	"context"

	"github.com/google/uuid"
)

const upsertUser = `-- name: UpsertUser :one
INSERT INTO users (
id, name, email, resume_text)
VALUES ( $1, $2, $3, $4)
ON CONFLICT (email)
DO UPDATE SET
    name = EXCLUDED.name,
    resume_text = EXCLUDED.resume_text,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, name, email, resume_text, created_at, updated_at
`

type UpsertUserParams struct {
	ID         uuid.UUID
	Name       string
	Email      string
	ResumeText string
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, upsertUser,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.ResumeText,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.ResumeText,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, name, email, resume_text, created_at, updated_at FROM users WHERE email=$1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.ResumeText,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
