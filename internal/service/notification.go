package service

import (
	"log"

	"buspass/internal/domain"
)

// NotificationService delivers user-facing lifecycle notifications. The
// current delivery channel is the application log; the method set is the
// stable surface a push gateway would plug into.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (s *NotificationService) NotifyTripCompleted(history domain.TripHistory) {
	log.Printf("[Notification] Trip completed: rider %s arrived at %s (%s %s)",
		history.RiderID, history.Destination, history.RouteNumber, history.RouteName)
}

func (s *NotificationService) NotifyChargeFailed(trip *domain.ActiveTrip, reason string) {
	log.Printf("[Notification] Charge failed: rider %s, trip %s: %s",
		trip.RiderID, trip.ID, reason)
}

func (s *NotificationService) NotifyTripCancelled(history domain.TripHistory) {
	log.Printf("[Notification] Trip cancelled: rider %s, %s to %s: %s",
		history.RiderID, history.Origin, history.Destination, history.CancelReason)
}

func (s *NotificationService) NotifyRecharge(txn *domain.LedgerTransaction) {
	log.Printf("[Notification] Wallet recharged: user %s, amount %.2f",
		txn.UserID, txn.Amount)
}

// Ensure NotificationService satisfies the consumers' notifier interfaces.
var _ RechargeNotifier = (*NotificationService)(nil)
