package application

import (
	"encoding/json"
	"strconv"
	"time"

	"agora/contexts/governance-core/voting-engine/ports"
)

// newVotingEnvelope wraps a voting event payload in the shared envelope,
// partitioned by voting id so per-voting ordering survives the broker.
func newVotingEnvelope(eventID string, eventType string, votingID uint32, occurredAt time.Time, data map[string]any) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "voting-engine",
		SchemaVersion:    1,
		PartitionKeyPath: "voting_id",
		PartitionKey:     strconv.FormatUint(uint64(votingID), 10),
		Data:             payload,
	}, nil
}
