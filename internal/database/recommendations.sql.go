package database

import (
	"context"

	"github.com/google/uuid"
)

const createRecommendation = `-- name: CreateRecommendation :exec
INSERT INTO recommendations (
id, user_id, career_path, score, rank)
VALUES ( $1, $2, $3, $4, $5)
`

type CreateRecommendationParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CareerPath string
	Score      float64
	Rank       int32
}

func (q *Queries) CreateRecommendation(ctx context.Context, arg CreateRecommendationParams) error {
	_, err := q.db.ExecContext(ctx, createRecommendation,
		arg.ID,
		arg.UserID,
		arg.CareerPath,
		arg.Score,
		arg.Rank,
	)
	return err
}

const deleteRecommendationsByUser = `-- name: DeleteRecommendationsByUser :exec
DELETE FROM recommendations WHERE user_id=$1
`

func (q *Queries) DeleteRecommendationsByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteRecommendationsByUser, userID)
	return err
}

const getRecommendationsByUser = `-- name: GetRecommendationsByUser :many
SELECT id, user_id, career_path, score, rank, created_at FROM recommendations WHERE user_id=$1 ORDER BY rank, created_at
`

func (q *Queries) GetRecommendationsByUser(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	rows, err := q.db.QueryContext(ctx, getRecommendationsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Recommendation
	for rows.Next() {
		var i Recommendation
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.CareerPath,
			&i.Score,
			&i.Rank,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
