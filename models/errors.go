package models

import "errors"

var (
	ErrItemNameRequired = errors.New("item name is required")
	ErrCartEmpty        = errors.New("cart is empty")

	ErrCustomerNameRequired    = errors.New("please enter your name")
	ErrCustomerPhoneInvalid    = errors.New("please enter a valid phone number")
	ErrCustomerAddressRequired = errors.New("please enter your address")
	ErrPaymentMethodInvalid    = errors.New("invalid payment method")

	ErrLedgerGatewayMissing = errors.New("ledger gateway is not configured")
	ErrLedgerCorrupt        = errors.New("persisted ledger is not readable")
)

// FieldError names the customer field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
