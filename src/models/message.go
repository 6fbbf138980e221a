package models

// -----------------------------------------------------------------------------
// Wire records exchanged between clients and the order server.
// Field names and casing are part of the protocol.
// -----------------------------------------------------------------------------

// SenderType tells which party built a message
type SenderType string

const (
	SenderClient SenderType = "Client"
	SenderServer SenderType = "Server"
)

// MessageType tags the kind of a message
type MessageType string

const (
	MessageBuyStock         MessageType = "BuyStock"
	MessageSellStock        MessageType = "SellStock"
	MessageGetOrders        MessageType = "GetOrders"
	MessageServerResponse   MessageType = "ServerResponse"
	MessageServerSendOrders MessageType = "ServerSendOrders"
	MessageFailure          MessageType = "Failure"
)

// Parameter keys
const (
	ParamStockSymbol = "stockSymbol"
	ParamStockISIN   = "stockISIN" // legacy alias of stockSymbol
	ParamAmount      = "amount"
	ParamResult      = "result"
	ParamOrder       = "order"
)

// MMessage is the unsigned domain message record.
type MMessage struct {
	Sender      SenderType        `json:"sender"`
	MessageType MessageType       `json:"messageType"`
	Parameters  map[string]string `json:"parameters"`
}

// MSignedMessage wraps a serialized MMessage with its signer and signature.
type MSignedMessage struct {
	ClientID  int    `json:"clientId"`
	Content   string `json:"content"`
	Signature []byte `json:"signature"`
}

// MServerReply is what the server hands back for every submission.
type MServerReply struct {
	Messages []MMessage `json:"messages"`
}
