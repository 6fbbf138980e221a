package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"order-server/src/helpers"
	"order-server/src/models"
)

// SignedEnvelope is a decoded envelope: a serialized Message, its signer and signature.
type SignedEnvelope struct {
	ClientID  int
	Payload   []byte
	Signature []byte
}

// Top-level field names. Matching is exact; see readFields.
var (
	messageFields  = []string{"sender", "senderType", "messageType", "parameters", "messageParameters"}
	envelopeFields = []string{"clientId", "content", "signature"}
	replyFields    = []string{"messages"}
)

// -----------------------------------------------------------------------------
// Messages
// -----------------------------------------------------------------------------

// EncodeMessage serializes msg. Parameter keys are emitted sorted, so the
// output is deterministic.
func EncodeMessage(msg Message) ([]byte, error) {
	record, err := toRecord(msg)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, helpers.NewEncodingError("failed to marshal message", err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------

// DecodeMessage parses a serialized message. Unknown parameters are ignored.
func DecodeMessage(data []byte) (Message, error) {
	fields, err := readFields(data, messageFields)
	if err != nil {
		return nil, helpers.NewDecodingError("malformed message", err)
	}
	return fromFields(fields)
}

// -----------------------------------------------------------------------------

func toRecord(msg Message) (models.MMessage, error) {
	if msg == nil {
		return models.MMessage{}, helpers.NewEncodingError("nil message", nil)
	}

	params := msg.parameters()
	for k, v := range params {
		// encoding/json would silently replace invalid bytes
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return models.MMessage{}, helpers.NewEncodingError(
				fmt.Sprintf("parameter %q of %s is not valid text", k, msg.Kind()), nil)
		}
	}

	return models.MMessage{
		Sender:      msg.Sender(),
		MessageType: msg.Kind(),
		Parameters:  params,
	}, nil
}

// -----------------------------------------------------------------------------

func fromFields(fields map[string]json.RawMessage) (Message, error) {
	var sender models.SenderType
	found, err := firstField(fields, &sender, "sender", "senderType")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, helpers.NewDecodingError("missing field sender", nil)
	}

	var kind models.MessageType
	found, err = firstField(fields, &kind, "messageType")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, helpers.NewDecodingError("missing field messageType", nil)
	}

	var params map[string]string
	if _, err := firstField(fields, &params, "parameters", "messageParameters"); err != nil {
		return nil, err
	}

	msg, err := buildMessage(kind, params)
	if err != nil {
		return nil, err
	}

	if msg.Sender() != sender {
		return nil, helpers.NewDecodingError(
			fmt.Sprintf("sender %q cannot send %s", sender, msg.Kind()), nil)
	}
	return msg, nil
}

// -----------------------------------------------------------------------------

func buildMessage(kind models.MessageType, params map[string]string) (Message, error) {
	switch kind {
	case models.MessageBuyStock, models.MessageSellStock:
		symbol, ok := params[models.ParamStockSymbol]
		if !ok {
			symbol, ok = params[models.ParamStockISIN]
		}
		if !ok {
			return nil, helpers.NewDecodingError(fmt.Sprintf("%s missing %s", kind, models.ParamStockSymbol), nil)
		}
		amount, ok := params[models.ParamAmount]
		if !ok {
			return nil, helpers.NewDecodingError(fmt.Sprintf("%s missing %s", kind, models.ParamAmount), nil)
		}
		if kind == models.MessageBuyStock {
			return BuyStock{StockSymbol: symbol, Amount: amount}, nil
		}
		return SellStock{StockSymbol: symbol, Amount: amount}, nil

	case models.MessageGetOrders:
		return GetOrders{}, nil

	case models.MessageServerResponse:
		value, ok := params[models.ParamResult]
		if !ok {
			return nil, helpers.NewDecodingError(fmt.Sprintf("%s missing %s", kind, models.ParamResult), nil)
		}
		result, err := strconv.ParseBool(value)
		if err != nil {
			return nil, helpers.NewDecodingError("invalid result value", err)
		}
		return ServerResponse{Result: result}, nil

	case models.MessageServerSendOrders:
		order, ok := params[models.ParamOrder]
		if !ok {
			return nil, helpers.NewDecodingError(fmt.Sprintf("%s missing %s", kind, models.ParamOrder), nil)
		}
		return ServerSendOrders{Order: order}, nil

	case models.MessageFailure:
		return Failure{}, nil

	default:
		return nil, helpers.NewDecodingError(fmt.Sprintf("unknown messageType %q", kind), nil)
	}
}

// -----------------------------------------------------------------------------
// Envelopes
// -----------------------------------------------------------------------------

// EncodeEnvelope serializes a signed envelope. payload must be a non-empty
// UTF-8 serialized message and signature must be non-empty.
func EncodeEnvelope(clientID int, payload []byte, signature []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, helpers.NewEncodingError("empty envelope content", nil)
	}
	if !utf8.Valid(payload) {
		return nil, helpers.NewEncodingError("envelope content is not valid text", nil)
	}
	if len(signature) == 0 {
		return nil, helpers.NewEncodingError("empty envelope signature", nil)
	}

	data, err := json.Marshal(models.MSignedMessage{
		ClientID:  clientID,
		Content:   string(payload),
		Signature: signature,
	})
	if err != nil {
		return nil, helpers.NewEncodingError("failed to marshal envelope", err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------

// DecodeEnvelope parses a serialized signed envelope.
func DecodeEnvelope(data []byte) (SignedEnvelope, error) {
	fields, err := readFields(data, envelopeFields)
	if err != nil {
		return SignedEnvelope{}, helpers.NewDecodingError("malformed envelope", err)
	}

	var clientID int
	found, err := firstField(fields, &clientID, "clientId")
	if err != nil {
		return SignedEnvelope{}, err
	}
	if !found {
		return SignedEnvelope{}, helpers.NewDecodingError("missing field clientId", nil)
	}

	var content string
	if _, err := firstField(fields, &content, "content"); err != nil {
		return SignedEnvelope{}, err
	}
	if content == "" {
		return SignedEnvelope{}, helpers.NewDecodingError("missing field content", nil)
	}

	var signature []byte
	if _, err := firstField(fields, &signature, "signature"); err != nil {
		return SignedEnvelope{}, err
	}
	if len(signature) == 0 {
		return SignedEnvelope{}, helpers.NewDecodingError("missing field signature", nil)
	}

	return SignedEnvelope{
		ClientID:  clientID,
		Payload:   []byte(content),
		Signature: signature,
	}, nil
}

// -----------------------------------------------------------------------------
// Replies
// -----------------------------------------------------------------------------

// EncodeReply serializes the server's answer to one submission.
func EncodeReply(msgs ...Message) ([]byte, error) {
	reply := models.MServerReply{Messages: make([]models.MMessage, 0, len(msgs))}
	for _, m := range msgs {
		record, err := toRecord(m)
		if err != nil {
			return nil, err
		}
		reply.Messages = append(reply.Messages, record)
	}

	data, err := json.Marshal(reply)
	if err != nil {
		return nil, helpers.NewEncodingError("failed to marshal reply", err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------

// DecodeReply parses a server reply into its messages, in order.
func DecodeReply(data []byte) ([]Message, error) {
	fields, err := readFields(data, replyFields)
	if err != nil {
		return nil, helpers.NewDecodingError("malformed reply", err)
	}

	var items []json.RawMessage
	found, err := firstField(fields, &items, "messages")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, helpers.NewDecodingError("missing field messages", nil)
	}

	msgs := make([]Message, 0, len(items))
	for i, item := range items {
		m, err := DecodeMessage(item)
		if err != nil {
			return nil, fmt.Errorf("reply message %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// -----------------------------------------------------------------------------
// Field scanning
// -----------------------------------------------------------------------------

// readFields splits a JSON object into its top-level members. Names are kept
// verbatim. A repeated member, or one that differs from a known name only
// by case, is an error.
func readFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object")
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a member name")
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		if _, dup := fields[name]; dup {
			return nil, fmt.Errorf("duplicate field %q", name)
		}
		for _, k := range known {
			if name != k && strings.EqualFold(name, k) {
				return nil, fmt.Errorf("field %q is not %q", name, k)
			}
		}
		fields[name] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after object")
	}
	return fields, nil
}

// -----------------------------------------------------------------------------

// firstField decodes the first present, non-null member among names into dst
func firstField(fields map[string]json.RawMessage, dst any, names ...string) (bool, error) {
	for _, name := range names {
		value, ok := fields[name]
		if !ok || bytes.Equal(value, []byte("null")) {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return false, helpers.NewDecodingError(fmt.Sprintf("invalid field %s", name), err)
		}
		return true, nil
	}
	return false, nil
}
