package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventDatasetReplaced EventType = "DATASET_REPLACED"
	EventMetricsUpdated  EventType = "METRICS_UPDATED"
	EventPong            EventType = "PONG"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	Kind    DatasetKind `json:"kind,omitempty"` // Empty for events every subscriber receives
}

// DatasetReplacedPayload announces a new dataset together with the recomputed KPIs.
type DatasetReplacedPayload struct {
	Dataset DatasetInfo     `json:"dataset"`
	Metrics MetricsSnapshot `json:"metrics"`
}
