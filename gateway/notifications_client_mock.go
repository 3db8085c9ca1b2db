package gateway

import (
	"context"
	"sync"

	"chefmarket/entity"
)

type NotificationsMock struct {
	lock sync.Mutex

	Notifications []entity.ChefNotification
}

func (m *NotificationsMock) Notify(_ context.Context, notification entity.ChefNotification) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.Notifications = append(m.Notifications, notification)
	return nil
}

func (m *NotificationsMock) Delivered() []entity.ChefNotification {
	m.lock.Lock()
	defer m.lock.Unlock()

	out := make([]entity.ChefNotification, len(m.Notifications))
	copy(out, m.Notifications)
	return out
}
