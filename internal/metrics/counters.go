package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Orders counts order write outcomes for the running process.
type Orders struct {
	Created         Counter
	Updated         Counter
	Deleted         Counter
	Failed          Counter
	StockRejected   Counter
	NumberRetries   Counter
	PublishFailures Counter
}

func NewOrders() *Orders {
	return &Orders{}
}

func (o *Orders) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_created_total":         o.Created.Load(),
		"orders_updated_total":         o.Updated.Load(),
		"orders_deleted_total":         o.Deleted.Load(),
		"orders_failed_total":          o.Failed.Load(),
		"orders_stock_rejected_total":  o.StockRejected.Load(),
		"order_number_retries_total":   o.NumberRetries.Load(),
		"order_publish_failures_total": o.PublishFailures.Load(),
	}
}
