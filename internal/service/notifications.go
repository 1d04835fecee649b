package service

import (
	"context"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
	"github.com/EngSayh/Fixzit-sub007/internal/port"
)

// NotificationsImpl maps each Fixzit event kind onto a notification
// payload with its conventional type, priority, and deep link, then
// hands it to the notifier. Delivery errors are returned as-is; callers
// treat them as informational.
type NotificationsImpl struct {
	notifier port.Notifier
}

func NewNotificationsImpl(notifier port.Notifier) *NotificationsImpl {
	return &NotificationsImpl{notifier: notifier}
}

func (s *NotificationsImpl) WorkOrderUpdated(ctx context.Context, orgID, workOrderID, title, message string, targetUserIDs []string) error {
	payload := domain.NotificationPayload{
		Type:     domain.EventWorkOrderUpdate,
		Title:    title,
		Message:  message,
		Link:     "/work-orders/" + workOrderID,
		Priority: domain.PriorityMedium,
	}
	return s.notifier.Publish(ctx, orgID, payload, targetUserIDs)
}

func (s *NotificationsImpl) BidReceived(ctx context.Context, orgID, workOrderID, title, message string, targetUserIDs []string) error {
	payload := domain.NotificationPayload{
		Type:     domain.EventBidReceived,
		Title:    title,
		Message:  message,
		Link:     "/work-orders/" + workOrderID + "/bids",
		Priority: domain.PriorityMedium,
	}
	return s.notifier.Publish(ctx, orgID, payload, targetUserIDs)
}

func (s *NotificationsImpl) PaymentConfirmed(ctx context.Context, orgID, paymentID, title, message string, targetUserIDs []string) error {
	payload := domain.NotificationPayload{
		Type:     domain.EventPaymentConfirmed,
		Title:    title,
		Message:  message,
		Link:     "/payments/" + paymentID,
		Priority: domain.PriorityHigh,
	}
	return s.notifier.Publish(ctx, orgID, payload, targetUserIDs)
}

// MaintenanceAlert fans out to the whole org. Alerts are never targeted
// because the on-call roster is not known at publish time.
func (s *NotificationsImpl) MaintenanceAlert(ctx context.Context, orgID, assetID, title, message string) error {
	payload := domain.NotificationPayload{
		Type:     domain.EventMaintenanceAlert,
		Title:    title,
		Message:  message,
		Link:     "/assets/" + assetID,
		Priority: domain.PriorityCritical,
	}
	return s.notifier.Publish(ctx, orgID, payload, nil)
}

func (s *NotificationsImpl) Announce(ctx context.Context, orgID, title, message string, priority domain.Priority) error {
	if priority == "" {
		priority = domain.PriorityLow
	}
	payload := domain.NotificationPayload{
		Type:     domain.EventSystemAnnouncement,
		Title:    title,
		Message:  message,
		Priority: priority,
	}
	return s.notifier.Publish(ctx, orgID, payload, nil)
}
