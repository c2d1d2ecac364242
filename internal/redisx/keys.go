package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{idempotency_key} -> order_number
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache order: order:{order_number} -> order JSON
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLOrderCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
