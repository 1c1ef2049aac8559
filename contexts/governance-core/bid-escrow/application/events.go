package application

import (
	"encoding/json"
	"strconv"
	"time"

	"agora/contexts/governance-core/bid-escrow/ports"
)

// newEscrowEnvelope wraps an escrow event payload in the shared envelope,
// partitioned by job offer id so per-offer ordering survives the broker.
func newEscrowEnvelope(eventID string, eventType string, offerID uint32, occurredAt time.Time, data map[string]any) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "bid-escrow",
		SchemaVersion:    1,
		PartitionKeyPath: "job_offer_id",
		PartitionKey:     strconv.FormatUint(uint64(offerID), 10),
		Data:             payload,
	}, nil
}
