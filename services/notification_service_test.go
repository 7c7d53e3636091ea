package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	subject    string
	body       string
	recipients []string
	calls      int
	err        error
}

func (f *fakeSender) Send(subject, body string, recipients []string) error {
	f.calls++
	f.subject = subject
	f.body = body
	f.recipients = recipients
	return f.err
}

func TestShouldNotify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		prev time.Time
		want bool
	}{
		{"updated yesterday", now.Add(-24 * time.Hour), true},
		{"updated just over four hours ago", now.Add(-NotificationDebounce - time.Second), true},
		{"updated exactly four hours ago", now.Add(-NotificationDebounce), false},
		{"updated an hour ago", now.Add(-time.Hour), false},
		{"updated just now", now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotify(tt.prev, now))
		})
	}
}

func TestSendCourseUpdateNotification(t *testing.T) {
	db, mock := newMockDB(t)
	sender := &fakeSender{}
	svc := NewNotificationService(db, sender, "http://localhost:8080")

	mock.ExpectQuery(`SELECT \* FROM "courses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "owner_id"}).
			AddRow(3, "Go Basics", "Intro", 1))
	mock.ExpectQuery(`SELECT DISTINCT users.email FROM "subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("alice@example.com").
			AddRow("bob@example.com"))

	status := svc.SendCourseUpdateNotification(context.Background(), 3)

	assert.Equal(t, `notified 2 subscribers of course "Go Basics"`, status)
	require.Equal(t, 1, sender.calls)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, sender.recipients)
	assert.Contains(t, sender.subject, "Go Basics")
	assert.Contains(t, sender.body, "/courses/3/")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendCourseUpdateNotificationMissingCourse(t *testing.T) {
	db, mock := newMockDB(t)
	sender := &fakeSender{}
	svc := NewNotificationService(db, sender, "http://localhost:8080")

	mock.ExpectQuery(`SELECT \* FROM "courses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status := svc.SendCourseUpdateNotification(context.Background(), 99)

	assert.Equal(t, "course not found", status)
	assert.Zero(t, sender.calls)
}

func TestSendCourseUpdateNotificationNoSubscribers(t *testing.T) {
	db, mock := newMockDB(t)
	sender := &fakeSender{}
	svc := NewNotificationService(db, sender, "http://localhost:8080")

	mock.ExpectQuery(`SELECT \* FROM "courses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "owner_id"}).
			AddRow(3, "Go Basics", "Intro", 1))
	mock.ExpectQuery(`SELECT DISTINCT users.email FROM "subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}))

	status := svc.SendCourseUpdateNotification(context.Background(), 3)

	assert.Equal(t, "no subscribers to notify", status)
	assert.Zero(t, sender.calls)
}
