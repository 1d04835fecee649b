// Package domain holds the value objects exchanged by the notification
// subsystem: payloads produced by platform services and the envelope that
// carries them across instances.
package domain

import "time"

// EventType classifies a notification for client-side routing.
type EventType string

const (
	EventNotification       EventType = "notification"
	EventWorkOrderUpdate    EventType = "work_order_update"
	EventBidReceived        EventType = "bid_received"
	EventPaymentConfirmed   EventType = "payment_confirmed"
	EventMaintenanceAlert   EventType = "maintenance_alert"
	EventSystemAnnouncement EventType = "system_announcement"
	EventHeartbeat          EventType = "heartbeat"
)

// EventTypes lists every valid EventType.
func EventTypes() []EventType {
	return []EventType{
		EventNotification,
		EventWorkOrderUpdate,
		EventBidReceived,
		EventPaymentConfirmed,
		EventMaintenanceAlert,
		EventSystemAnnouncement,
		EventHeartbeat,
	}
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Priority orders notifications for client display.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// NotificationPayload is the immutable unit of delivery. It is never
// mutated after creation and may reach zero, one, or many subscribers.
type NotificationPayload struct {
	ID        string    `json:"id" validate:"required"`
	Type      EventType `json:"type" validate:"required,oneof=notification work_order_update bid_received payment_confirmed maintenance_alert system_announcement heartbeat"`
	Title     string    `json:"title" validate:"required"`
	Message   string    `json:"message" validate:"required"`
	Link      string    `json:"link,omitempty" validate:"omitempty,uri"`
	Priority  Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	CreatedAt time.Time `json:"createdAt"`
}

// Envelope is the bus transit unit. Every instance, including the one
// that published, decodes it back into this shape so local delivery
// always flows through one code path.
type Envelope struct {
	OrgID         string              `json:"orgId"`
	Notification  NotificationPayload `json:"notification"`
	TargetUserIDs []string            `json:"targetUserIds,omitempty"`
}
