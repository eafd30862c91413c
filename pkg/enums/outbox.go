package enums

import "fmt"

// OutboxEventType enumerates the domain events published to the
// notification pipeline.
type OutboxEventType string

const (
	OutboxEventPurchaseRecorded OutboxEventType = "purchase.recorded"
	OutboxEventPurchaseRefunded OutboxEventType = "purchase.refunded"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventPurchaseRecorded,
	OutboxEventPurchaseRefunded,
}

func (o OutboxEventType) String() string {
	return string(o)
}

func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregatePurchase OutboxAggregateType = "purchase"
)

func (o OutboxAggregateType) String() string {
	return string(o)
}

func (o OutboxAggregateType) IsValid() bool {
	return o == OutboxAggregatePurchase
}
