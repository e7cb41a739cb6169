package service

import (
	"github.com/google/uuid"
)

// Notifier is told about every change after it has been committed.
type Notifier interface {
	Publish(tournamentID uuid.UUID, messageType string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Publish(uuid.UUID, string, any) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
