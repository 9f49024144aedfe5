package notify_test

import (
	"testing"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	m.Run()
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := notify.NewHub()

	ch, cancel := hub.Subscribe("tasks/1/comments")
	defer cancel()

	hub.Publish("tasks/1/comments", "updated")

	select {
	case event := <-ch:
		assert.Equal(t, "updated", event)
	case <-time.After(time.Second):
		t.Fatal("событие не получено")
	}
}

func TestHub_TopicsAreIsolated(t *testing.T) {
	hub := notify.NewHub()

	ch, cancel := hub.Subscribe("tasks/1/comments")
	defer cancel()

	hub.Publish("tasks/2/comments", "updated")

	select {
	case <-ch:
		t.Fatal("событие чужой темы")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	hub := notify.NewHub()

	ch, cancel := hub.Subscribe("tasks/1/comments")
	cancel()

	// после отписки публикация не должна паниковать
	require.NotPanics(t, func() {
		hub.Publish("tasks/1/comments", "updated")
	})

	_, open := <-ch
	assert.False(t, open)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := notify.NewHub()

	_, cancel := hub.Subscribe("tasks/1/comments")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish("tasks/1/comments", "updated")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("публикация заблокировалась на медленном подписчике")
	}
}
