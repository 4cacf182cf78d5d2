package events

// Topics emitted by the purchase core.
const (
	TopicPurchaseCompleted    = "purchase.completed"
	TopicSubscriptionRenewed  = "subscription.renewed"
	TopicSubscriptionExpiring = "subscription.expiring"
	TopicAttendanceRecorded   = "attendance.recorded"
)
