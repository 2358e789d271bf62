package database

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID
	Name       string
	Email      string
	ResumeText string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Recommendation struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CareerPath string
	Score      float64
	Rank       int32
	CreatedAt  time.Time
}
