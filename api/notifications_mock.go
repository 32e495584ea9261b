package api

import (
	"context"
	"sync"
)

type NotificationsMock struct {
	lock sync.Mutex

	Sent []Notification
}

func (m *NotificationsMock) Send(ctx context.Context, notification Notification) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	// deduplicate like the real service does, keyed by idempotency key
	for _, sent := range m.Sent {
		if sent.IdempotencyKey == notification.IdempotencyKey {
			return nil
		}
	}

	m.Sent = append(m.Sent, notification)
	return nil
}

func (m *NotificationsMock) All() []Notification {
	m.lock.Lock()
	defer m.lock.Unlock()

	return append([]Notification(nil), m.Sent...)
}
