package models

// MServerStats is a snapshot of the order server counters.
// It never carries order content.
type MServerStats struct {
	RegisteredClients int              `json:"registered_clients"`
	Accepting         bool             `json:"accepting"`
	HistoryCapacity   int              `json:"history_capacity"`
	StoredOrders      int              `json:"stored_orders"`
	Accepted          int64            `json:"accepted"`
	Rejected          int64            `json:"rejected"`
	Served            int64            `json:"served"`
	Failures          int64            `json:"failures"`
	ByKind            map[string]int64 `json:"by_kind"`
}

// MClientStatus describes the history of one registered client.
type MClientStatus struct {
	ClientID        int `json:"client_id"`
	HistorySize     int `json:"history_size"`
	HistoryCapacity int `json:"history_capacity"`
}
