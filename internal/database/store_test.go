package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "name", "email", "resume_text", "created_at", "updated_at"}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestStore_SaveAssessment(t *testing.T) {
	store, mock := newMock(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Jane", "jane@example.com", "resume text").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "Jane", "jane@example.com", "resume text", now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recommendations WHERE user_id=$1")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recommendations")).
		WithArgs(sqlmock.AnyArg(), userID, "Backend Engineer", 73.0, int32(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recommendations")).
		WithArgs(sqlmock.AnyArg(), userID, "Data Engineer", 56.5, int32(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := store.SaveAssessment(context.Background(), "Jane", "jane@example.com", "resume text", []CareerScore{
		{CareerPath: "Backend Engineer", Score: 73},
		{CareerPath: "Data Engineer", Score: 56.5},
	})
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveAssessment_RollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMock(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "Jane", "jane@example.com", "resume text", now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recommendations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recommendations")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.SaveAssessment(context.Background(), "Jane", "jane@example.com", "resume text", []CareerScore{
		{CareerPath: "SRE", Score: 10},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveAssessment_NoCareers(t *testing.T) {
	store, mock := newMock(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "Jane", "jane@example.com", "t", now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recommendations")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	_, err := store.SaveAssessment(context.Background(), "Jane", "jane@example.com", "t", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveAssessment_BeginFails(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := store.SaveAssessment(context.Background(), "Jane", "jane@example.com", "t", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestStore_RecommendationsFor(t *testing.T) {
	store, mock := newMock(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "Jane", "jane@example.com", "t", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM recommendations WHERE user_id=$1 ORDER BY rank")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "career_path", "score", "rank", "created_at"}).
			AddRow(uuid.NewString(), userID.String(), "SRE", 61.5, 0, now).
			AddRow(uuid.NewString(), userID.String(), "Backend Engineer", 55.0, 1, now))

	user, recs, err := store.RecommendationsFor(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)
	require.Len(t, recs, 2)
	assert.Equal(t, "SRE", recs[0].CareerPath)
	assert.Equal(t, 61.5, recs[0].Score)
	assert.Equal(t, "Backend Engineer", recs[1].CareerPath)
	assert.Equal(t, int32(1), recs[1].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecommendationsFor_UnknownUser(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, _, err := store.RecommendationsFor(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
