package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/justsurfingit/job-recommender/internal/models"
)

func newMockHistory(t *testing.T) (*HistoryService, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewHistoryService(db), mock
}

func TestHistoryService_Disabled(t *testing.T) {
	var nilSvc *HistoryService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Record(context.Background(), &models.RecommendationLog{}))

	svc := NewHistoryService(nil)
	assert.False(t, svc.Enabled())
	_, err := svc.Recent(context.Background(), 5)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestHistoryService_Record(t *testing.T) {
	svc, mock := newMockHistory(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "recommendation_logs"`).
		WithArgs(sqlmock.AnyArg(), "req-1", "/recommend_jobs", "User: Asha", 3, 1, "ok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	entry := &models.RecommendationLog{
		RequestID:     "req-1",
		Route:         "/recommend_jobs",
		Query:         "User: Asha",
		JobsSubmitted: 3,
		ResultsFound:  1,
		Outcome:       "ok",
	}
	require.NoError(t, svc.Record(context.Background(), entry))
	assert.Equal(t, uint(7), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryService_Recent(t *testing.T) {
	svc, mock := newMockHistory(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at", "request_id", "route", "query", "jobs_submitted", "results_found", "outcome"}).
		AddRow(2, now, "req-2", "/recommend-jobs", "driver", 4, 0, "no_match").
		AddRow(1, now.Add(-time.Minute), "req-1", "/recommend_jobs", "User: Asha", 3, 1, "ok")
	mock.ExpectQuery(`SELECT \* FROM "recommendation_logs" ORDER BY created_at desc LIMIT`).
		WillReturnRows(rows)

	logs, err := svc.Recent(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "req-2", logs[0].RequestID)
	assert.Equal(t, "no_match", logs[0].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}
