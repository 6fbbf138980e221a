package orderserver

import (
	"time"

	"order-server/src/models"
	"order-server/src/protocol"
	"order-server/src/utils"
)

const (
	kindMalformed  = "malformed"
	kindUnverified = "unverified"
)

// -----------------------------------------------------------------------------

// AcceptMessage is the single protocol entry point. It consumes one encoded
// SignedEnvelope and always returns an encoded reply:
//   - malformed envelope, undecodable payload or non-client kind: Failure
//   - unknown client id or bad signature: ServerResponse{false}
//   - BuyStock/SellStock: stored encrypted, ServerResponse{true}
//   - GetOrders: one ServerSendOrders per stored order, oldest first
func (s *OrderServer) AcceptMessage(envelope []byte) []byte {
	reply, err := protocol.EncodeReply(s.dispatch(envelope)...)
	if err != nil {
		s.Logger.Error("Failed to encode reply: %v", err)
		reply, _ = protocol.EncodeReply(protocol.Failure{})
	}
	return reply
}

// -----------------------------------------------------------------------------

func (s *OrderServer) dispatch(data []byte) []protocol.Message {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		s.Logger.Debug("Malformed envelope: %v", err)
		return s.fail(utils.RefusedClientID, kindMalformed)
	}

	entry, known := s.registry.lookup(env.ClientID)
	if !known || !s.verify(entry.publicKey, env) {
		return s.reject(env.ClientID)
	}

	msg, err := protocol.DecodeMessage(env.Payload)
	if err != nil {
		s.Logger.Debug("Client %d sent an undecodable payload: %v", env.ClientID, err)
		return s.fail(env.ClientID, kindMalformed)
	}

	kind := string(msg.Kind())
	s.countKind(kind)

	switch msg.(type) {
	case protocol.BuyStock, protocol.SellStock:
		return s.storeOrder(env.ClientID, entry, kind, env.Payload)
	case protocol.GetOrders:
		return s.serveOrders(env.ClientID, entry)
	default:
		s.Logger.Debug("Client %d sent unsupported kind %s", env.ClientID, kind)
		return s.fail(env.ClientID, kind)
	}
}

// -----------------------------------------------------------------------------

// verify treats malformed key or signature input as a failed verification
func (s *OrderServer) verify(publicKey []byte, env protocol.SignedEnvelope) bool {
	ok, err := s.provider.Verify(publicKey, env.Payload, env.Signature)
	if err != nil {
		s.Logger.Debug("Verification error for client %d: %v", env.ClientID, err)
		return false
	}
	return ok
}

// -----------------------------------------------------------------------------

func (s *OrderServer) storeOrder(clientID int, entry *clientEntry, kind string, payload []byte) []protocol.Message {
	ciphertext, err := s.provider.Encrypt(s.masterKey, payload)
	if err != nil {
		cryptoFailuresTotal.WithLabelValues("encrypt").Inc()
		s.Logger.Error("Failed to encrypt order for client %d: %v", clientID, err)
		return s.fail(clientID, kind)
	}

	if entry.history.Append(ciphertext) {
		historyEvictionsTotal.Inc()
	}

	s.accepted.Add(1)
	messagesTotal.WithLabelValues(kind, outcomeAccepted).Inc()
	s.enqueueJournal(journalRecord{clientID: clientID, kind: kind, data: ciphertext, at: time.Now()})
	s.publish(models.EventOrderAccepted, clientID, kind, outcomeAccepted)

	return []protocol.Message{protocol.ServerResponse{Result: true}}
}

// -----------------------------------------------------------------------------

// serveOrders decrypts a snapshot of the history outside its lock. Any
// decrypt failure fails the whole request.
func (s *OrderServer) serveOrders(clientID int, entry *clientEntry) []protocol.Message {
	kind := string(models.MessageGetOrders)
	snapshot := entry.history.Snapshot()

	orders := make([]protocol.Message, 0, len(snapshot))
	for _, ciphertext := range snapshot {
		plaintext, err := s.provider.Decrypt(s.masterKey, ciphertext)
		if err != nil {
			cryptoFailuresTotal.WithLabelValues("decrypt").Inc()
			s.Logger.Error("Failed to decrypt order for client %d: %v", clientID, err)
			return s.fail(clientID, kind)
		}
		orders = append(orders, protocol.ServerSendOrders{Order: string(plaintext)})
	}

	s.served.Add(1)
	messagesTotal.WithLabelValues(kind, outcomeServed).Inc()
	s.publish(models.EventOrdersServed, clientID, kind, outcomeServed)

	return orders
}

// -----------------------------------------------------------------------------

func (s *OrderServer) reject(clientID int) []protocol.Message {
	s.rejected.Add(1)
	messagesTotal.WithLabelValues(kindUnverified, outcomeRejected).Inc()
	s.Logger.Debug("Rejected envelope for client %d", clientID)
	s.publish(models.EventOrderRejected, clientID, "", outcomeRejected)

	return []protocol.Message{protocol.ServerResponse{Result: false}}
}

// -----------------------------------------------------------------------------

func (s *OrderServer) fail(clientID int, kind string) []protocol.Message {
	s.failures.Add(1)
	messagesTotal.WithLabelValues(kind, outcomeFailed).Inc()
	s.publish(models.EventRequestFailed, clientID, kind, outcomeFailed)

	return []protocol.Message{protocol.Failure{}}
}

// -----------------------------------------------------------------------------

func (s *OrderServer) countKind(kind string) {
	s.kindMu.Lock()
	s.byKind[kind]++
	s.kindMu.Unlock()
}
