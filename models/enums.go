package models

import (
	"strings"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "Credit Card"
	PaymentMethodUPI            PaymentMethod = "UPI"
	PaymentMethodCashOnDelivery PaymentMethod = "Cash On Delivery"
)

// PaymentMethods lists the choices in display order; the first one is preselected.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCreditCard,
		PaymentMethodUPI,
		PaymentMethodCashOnDelivery,
	}
}

// ParsePaymentMethod accepts the display names case-insensitively.
// An empty choice resolves to Credit Card.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "":
		return PaymentMethodCreditCard, nil
	case "credit card", "creditcard":
		return PaymentMethodCreditCard, nil
	case "upi":
		return PaymentMethodUPI, nil
	case "cash on delivery", "cashondelivery", "cod":
		return PaymentMethodCashOnDelivery, nil
	default:
		return "", ErrPaymentMethodInvalid
	}
}

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCreditCard, PaymentMethodUPI, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}
