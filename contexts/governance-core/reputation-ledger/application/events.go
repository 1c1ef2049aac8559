package application

import (
	"encoding/json"
	"time"

	"agora/contexts/governance-core/reputation-ledger/ports"
)

func newLedgerEnvelope(
	eventID string,
	eventType string,
	account string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Ledger events are partitioned by account so per-account consumers see
	// mints and burns in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "reputation-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "account",
		PartitionKey:     account,
		Data:             payload,
	}, nil
}
