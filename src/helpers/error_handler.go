package helpers

import (
	"fmt"
	"sync"

	"order-server/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type OrderServerError struct {
	Message string
	Cause   error
}

func (e *OrderServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *OrderServerError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks
type RegistrationError struct{ OrderServerError }
type EncodingError struct{ OrderServerError }
type DecodingError struct{ OrderServerError }
type CryptoError struct{ OrderServerError }
type SigningError struct{ OrderServerError }
type VerificationError struct{ OrderServerError }
type ClientProtocolError struct{ OrderServerError }
type ConfigurationError struct{ OrderServerError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewRegistrationError(msg string, cause error) error {
	return &RegistrationError{OrderServerError{Message: msg, Cause: cause}}
}

func NewEncodingError(msg string, cause error) error {
	return &EncodingError{OrderServerError{Message: msg, Cause: cause}}
}

func NewDecodingError(msg string, cause error) error {
	return &DecodingError{OrderServerError{Message: msg, Cause: cause}}
}

func NewCryptoError(msg string, cause error) error {
	return &CryptoError{OrderServerError{Message: msg, Cause: cause}}
}

func NewSigningError(msg string, cause error) error {
	return &SigningError{OrderServerError{Message: msg, Cause: cause}}
}

func NewVerificationError(msg string, cause error) error {
	return &VerificationError{OrderServerError{Message: msg, Cause: cause}}
}

func NewClientProtocolError(msg string, cause error) error {
	return &ClientProtocolError{OrderServerError{Message: msg, Cause: cause}}
}

func NewConfigurationError(msg string, cause error) error {
	return &ConfigurationError{OrderServerError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs per-cycle failures and keeps a running count.
// A success decrements the count so a recovering loop settles back to zero.
type ErrorHandler struct {
	Logger     *logger.Logger
	errorCount int
	mu         sync.Mutex
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errorCount
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.errorCount = 0
	e.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Handle records the outcome of one operation. It returns err unchanged.
func (e *ErrorHandler) Handle(err error, context string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err == nil {
		if e.errorCount > 0 {
			e.errorCount--
		}
		return nil
	}

	e.errorCount++
	e.Logger.Error("Error in %s (%d recent): %v", context, e.errorCount, err)
	return err
}
