package shared

// Task types and queues shared by the API (producer) and the worker (consumer).
const (
	TypeRefundNotify = "refund:notify"

	QueueRefunds = "refunds"
)

// RefundNotifyPayload is the payload of a refund:notify task.
type RefundNotifyPayload struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
}

// Requester is the authenticated caller, as resolved by the auth middleware
// (kept here to avoid an import cycle between the user and refund domains).
type Requester struct {
	UserID   string
	Username string
	IsStaff  bool
}
