package messaging

const (
	TypeApprovalRequested = "approval_requested"
	TypeApprovalApproved  = "approval_approved"
	TypeApprovalRejected  = "approval_rejected"
	TypeApprovalStale     = "approval_stale"

	// TypeApprovalUnconfirmed flags a request approved while the entity
	// deletion itself failed; admins must reconcile by hand.
	TypeApprovalUnconfirmed = "approval_unconfirmed"
	TypeLowStock          = "low_stock"
	TypeMessageReceived   = "message_received"
)
