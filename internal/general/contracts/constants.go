package contracts

// Exchanges
const (
	ExchangeLifecycleTopic = "ride_lifecycle_topic"
)

// Queues
const (
	QueueRideStatus        = "ride_status"
	QueueRideNotifications = "ride_notifications"
	QueueDriverStatus      = "driver_status"
	QueuePaymentRequests   = "payment_requests"
	QueueEffectWarnings    = "lifecycle_effect_warnings"
)

// Routing patterns
const (
	RouteRideStatusPrefix   = "ride.status."   // {state}
	RouteNotifyPrefix       = "ride.notify."   // {recipient_role}
	RouteDriverStatusPrefix = "driver.status." // {driver_id}
	RoutePaymentDebit       = "payment.debit"
	RouteEffectWarning      = "lifecycle.warning"
)
