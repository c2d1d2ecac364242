package orders

const (
	TopicOrderPlaced    = "order-placed"
	TopicOrderCancelled = "order-cancelled"
)

// Partition key = order number, supaya semua event 1 order maintain urutan.
func PartitionKey(orderNumber string) []byte { return []byte(orderNumber) }
