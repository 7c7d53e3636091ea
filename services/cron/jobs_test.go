package cron

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockManager(t *testing.T) (*CronManager, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewCronManager(db), mock
}

func TestBlockInactiveUsers(t *testing.T) {
	m, mock := newMockManager(t)

	mock.ExpectExec(`UPDATE "users" SET "is_active"`).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(`UPDATE "cron_job_logs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m.BlockInactiveUsers()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockInactiveUsersNothingToBlock(t *testing.T) {
	m, mock := newMockManager(t)

	mock.ExpectExec(`UPDATE "users" SET "is_active"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "cron_job_logs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m.BlockInactiveUsers()

	assert.NoError(t, mock.ExpectationsWereMet())
}
