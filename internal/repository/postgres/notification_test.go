package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func TestNotificationRepository_ListForRecipient_UnreadOnly(t *testing.T) {
	mock := newMock(t)
	repo := NewNotificationRepository(mock)

	n := sampleNotification()
	mock.ExpectQuery("FROM notifications WHERE recipient_id").
		WithArgs("seller-1", true, 50).
		WillReturnRows(pgxmock.NewRows(notificationColumnNames).
			AddRow(n.ID, n.RecipientID, n.Title, n.Body, false, nil, []byte(`{"order_id":"order-1"}`), n.CreatedAt))

	got, err := repo.ListForRecipient(context.Background(), "seller-1", true, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "order-1", got[0].Metadata["order_id"])
	assert.False(t, got[0].Read)
	assert.Nil(t, got[0].ReadAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewNotificationRepository(mock)

	mock.ExpectQuery("FROM notifications WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(notificationColumnNames))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestNotificationRepository_MarkRead_KeepsFirstReadTime(t *testing.T) {
	mock := newMock(t)
	repo := NewNotificationRepository(mock)

	n := sampleNotification()
	firstRead := now.Add(-1)
	mock.ExpectQuery("UPDATE notifications SET read = TRUE, read_at = COALESCE").
		WithArgs(n.ID, now).
		WillReturnRows(pgxmock.NewRows(notificationColumnNames).
			AddRow(n.ID, n.RecipientID, n.Title, n.Body, true, timePtr(firstRead), []byte(`{}`), n.CreatedAt))

	got, err := repo.MarkRead(context.Background(), n.ID, now)
	require.NoError(t, err)
	assert.True(t, got.Read)
	require.NotNil(t, got.ReadAt)
	assert.Equal(t, firstRead, *got.ReadAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkRead_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewNotificationRepository(mock)

	mock.ExpectQuery("UPDATE notifications").
		WithArgs("missing", now).
		WillReturnRows(pgxmock.NewRows(notificationColumnNames))

	_, err := repo.MarkRead(context.Background(), "missing", now)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
