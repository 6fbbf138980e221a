package models

// Activity event types
const (
	EventClientRegistered    = "client_registered"
	EventRegistrationRefused = "registration_refused"
	EventOrderAccepted       = "order_accepted"
	EventOrderRejected       = "order_rejected"
	EventOrdersServed        = "orders_served"
	EventRequestFailed       = "request_failed"
	EventTick                = "tick"
)

// MActivityEvent is pushed to activity feed listeners.
type MActivityEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ClientID  int    `json:"client_id"`
	Kind      string `json:"kind,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// MSubscribeCommand narrows the activity feed of one websocket listener.
// Empty Types means every type; a nil ClientID means every client.
type MSubscribeCommand struct {
	Command  string   `json:"command"`
	Types    []string `json:"types"`
	ClientID *int     `json:"clientId"`
}
