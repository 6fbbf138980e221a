// Package protocol holds the client/server message types and their wire codec.
//
// A Message is a closed sum type: one Go type per message kind, each with its
// own typed fields. On the wire every kind shares the string-keyed parameter
// record of models.MMessage.
package protocol

import (
	"strconv"

	"order-server/src/models"
)

// Message is implemented only by the types in this package.
type Message interface {
	Kind() models.MessageType
	Sender() models.SenderType
	parameters() map[string]string
}

// -----------------------------------------------------------------------------
// Client messages
// -----------------------------------------------------------------------------

// BuyStock asks to buy Amount of StockSymbol. Both are opaque strings.
type BuyStock struct {
	StockSymbol string
	Amount      string
}

func (BuyStock) Kind() models.MessageType  { return models.MessageBuyStock }
func (BuyStock) Sender() models.SenderType { return models.SenderClient }
func (m BuyStock) parameters() map[string]string {
	return map[string]string{models.ParamStockSymbol: m.StockSymbol, models.ParamAmount: m.Amount}
}

// SellStock asks to sell Amount of StockSymbol.
type SellStock struct {
	StockSymbol string
	Amount      string
}

func (SellStock) Kind() models.MessageType  { return models.MessageSellStock }
func (SellStock) Sender() models.SenderType { return models.SenderClient }
func (m SellStock) parameters() map[string]string {
	return map[string]string{models.ParamStockSymbol: m.StockSymbol, models.ParamAmount: m.Amount}
}

// GetOrders asks for the caller's stored order history.
type GetOrders struct{}

func (GetOrders) Kind() models.MessageType      { return models.MessageGetOrders }
func (GetOrders) Sender() models.SenderType     { return models.SenderClient }
func (GetOrders) parameters() map[string]string { return map[string]string{} }

// -----------------------------------------------------------------------------
// Server messages
// -----------------------------------------------------------------------------

// ServerResponse reports whether a Buy/Sell order was authenticated and stored.
type ServerResponse struct {
	Result bool
}

func (ServerResponse) Kind() models.MessageType  { return models.MessageServerResponse }
func (ServerResponse) Sender() models.SenderType { return models.SenderServer }
func (m ServerResponse) parameters() map[string]string {
	return map[string]string{models.ParamResult: strconv.FormatBool(m.Result)}
}

// ServerSendOrders carries the plaintext payload of one stored order.
type ServerSendOrders struct {
	Order string
}

func (ServerSendOrders) Kind() models.MessageType  { return models.MessageServerSendOrders }
func (ServerSendOrders) Sender() models.SenderType { return models.SenderServer }
func (m ServerSendOrders) parameters() map[string]string {
	return map[string]string{models.ParamOrder: m.Order}
}

// Failure is the opaque reply to a request the server could not process.
type Failure struct{}

func (Failure) Kind() models.MessageType      { return models.MessageFailure }
func (Failure) Sender() models.SenderType     { return models.SenderServer }
func (Failure) parameters() map[string]string { return map[string]string{} }

// -----------------------------------------------------------------------------

// IsOrder reports whether m is a Buy or Sell order.
func IsOrder(m Message) bool {
	switch m.(type) {
	case BuyStock, SellStock:
		return true
	}
	return false
}
