package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

//go:embed schema.sql
var schema string

// Migrate creates the users and recommendations tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Open connects to Postgres and sizes the pool.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// CareerScore is one recommendation row to persist.
type CareerScore struct {
	CareerPath string
	Score      float64
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveAssessment upserts the user by email and replaces their
// recommendations, all in one transaction. Each recommendation is ranked by
// its position in scores.
func (s *Store) SaveAssessment(ctx context.Context, name, email, resumeText string, scores []CareerScore) (User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := New(s.db).WithTx(tx)
	user, err := q.UpsertUser(ctx, UpsertUserParams{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		ResumeText: resumeText,
	})
	if err != nil {
		return User{}, fmt.Errorf("upsert user %s: %w", email, err)
	}

	if err := q.DeleteRecommendationsByUser(ctx, user.ID); err != nil {
		return User{}, fmt.Errorf("delete recommendations: %w", err)
	}
	for i, sc := range scores {
		err := q.CreateRecommendation(ctx, CreateRecommendationParams{
			ID:         uuid.New(),
			UserID:     user.ID,
			CareerPath: sc.CareerPath,
			Score:      sc.Score,
			Rank:       int32(i),
		})
		if err != nil {
			return User{}, fmt.Errorf("create recommendation %q: %w", sc.CareerPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

// RecommendationsFor returns the stored recommendations of the user with the
// given email.
func (s *Store) RecommendationsFor(ctx context.Context, email string) (User, []Recommendation, error) {
	q := New(s.db)
	user, err := q.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, nil, ErrUserNotFound
	}
	if err != nil {
		return User{}, nil, fmt.Errorf("get user %s: %w", email, err)
	}

	recs, err := q.GetRecommendationsByUser(ctx, user.ID)
	if err != nil {
		return User{}, nil, fmt.Errorf("get recommendations: %w", err)
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	return user, recs, nil
}
