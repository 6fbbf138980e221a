package orderserver

import (
	"sync"

	"order-server/src/utils"
)

// -----------------------------------------------------------------------------
// ClientHistory is the bounded FIFO of one client's encrypted orders.
// It has its own lock so order traffic of different clients never contends.
// -----------------------------------------------------------------------------

type ClientHistory struct {
	mu     sync.Mutex
	buffer *utils.RingBuffer[[]byte]
}

// -----------------------------------------------------------------------------

func newClientHistory(capacity int) *ClientHistory {
	return &ClientHistory{buffer: utils.NewRingBuffer[[]byte](capacity)}
}

// -----------------------------------------------------------------------------

// Append stores one ciphertext and reports whether the oldest entry was evicted
func (h *ClientHistory) Append(ciphertext []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffer.Append(ciphertext)
}

// -----------------------------------------------------------------------------

// Snapshot returns the stored ciphertexts, oldest first
func (h *ClientHistory) Snapshot() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffer.GetAll()
}

// -----------------------------------------------------------------------------

func (h *ClientHistory) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffer.Size()
}

// -----------------------------------------------------------------------------

func (h *ClientHistory) Capacity() int {
	return h.buffer.Capacity()
}
