package port

import (
	"context"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
)

// Notifier is the publish entry point handed to producers. targetUserIDs
// narrows delivery to specific users in the org; nil or empty reaches
// every subscriber of the org. The returned error is informational and
// producers must not fail their own transaction on it.
type Notifier interface {
	Publish(ctx context.Context, orgID string, payload domain.NotificationPayload, targetUserIDs []string) error
}

// Notifications is the typed producer facade used by platform services.
// Each method fills in the event type, priority, and link conventions
// for its Fixzit event kind.
type Notifications interface {
	WorkOrderUpdated(ctx context.Context, orgID, workOrderID, title, message string, targetUserIDs []string) error
	BidReceived(ctx context.Context, orgID, workOrderID, title, message string, targetUserIDs []string) error
	PaymentConfirmed(ctx context.Context, orgID, paymentID, title, message string, targetUserIDs []string) error
	MaintenanceAlert(ctx context.Context, orgID, assetID, title, message string) error
	Announce(ctx context.Context, orgID, title, message string, priority domain.Priority) error
}
