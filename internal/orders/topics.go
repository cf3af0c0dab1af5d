package orders

const (
	TopicOrderPlaced    = "order.placed"
	TopicStatusChanged  = "order.status.changed"
	TopicPaymentChanged = "order.payment.changed"
)

// Partition key = order id, so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
