package models

import "fmt"

type NotificationService interface {
	SendNotification(notification *Notification)
}

// Notification is an operator-facing message about a finished transfer
// attempt.
type Notification struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Asset     string `json:"asset"`
	Status    string `json:"status"`
	// Reference is the settlement hash or, for assumed-settled outcomes,
	// the operation identifier.
	Reference string `json:"reference"`
	Detail    string `json:"detail,omitempty"`
}

func (n *Notification) String() string {
	msg := fmt.Sprintf("Transfer of %s %s to %s: %s", n.Amount, n.Asset, n.Recipient, n.Status)
	if n.Reference != "" {
		msg += fmt.Sprintf(" (%s)", n.Reference)
	}
	if n.Detail != "" {
		msg += "\n" + n.Detail
	}
	return msg
}
