package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
)

func TestNotificationService_StoresAndDrains(t *testing.T) {
	users := repositories.NewUserRepository()
	agents := repositories.NewAgentRepository()
	repo := repositories.NewNotificationRepository()
	svc := NewNotificationService(config.Default(), repo, NewUserDirectory(users, agents))

	u := &models.User{ID: uuid.New(), Name: "Dana", Email: "dana@example.com"}
	require.NoError(t, users.Create(context.Background(), u))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	svc.Emit(ctx, models.Notification{ID: uuid.New(), RecipientID: u.ID, Type: models.NotificationBookingConfirmed, Message: "hi"})
	svc.Emit(ctx, models.Notification{ID: uuid.New(), RecipientID: uuid.New(), Type: models.NotificationViewingOnly})

	list, err := svc.ListForRecipient(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationBookingConfirmed, list[0].Type)

	require.Eventually(t, func() bool { return len(svc.queue) == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestNotificationService_EmitNeverBlocks(t *testing.T) {
	svc := NewNotificationService(config.Default(), repositories.NewNotificationRepository(),
		NewUserDirectory(repositories.NewUserRepository(), repositories.NewAgentRepository()))

	// nobody drains the queue
	for i := 0; i < cap(svc.queue)+10; i++ {
		svc.Emit(context.Background(), models.Notification{ID: uuid.New()})
	}
	all, err := svc.repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, cap(svc.queue)+10)
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "Viewing booked", subjectFor(models.NotificationBookingConfirmed))
	assert.Equal(t, "Booking update", subjectFor(models.NotificationType("unknown")))
}
