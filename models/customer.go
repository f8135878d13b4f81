package models

import (
	"errors"
	"strings"

	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"github.com/go-playground/validator/v10"
)

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CustomerDetails struct {
	Customer
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// Normalized trims the text fields. The payment method is left as typed.
func (d CustomerDetails) Normalized() CustomerDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.PaymentMethod = PaymentMethod(strings.TrimSpace(string(d.PaymentMethod)))
	return d
}

// CustomerValidator checks customer details in a fixed order and stops at the first failure.
type CustomerValidator struct {
	// StrictPhone adds a libphonenumber check after the length rule.
	StrictPhone bool
	Region      string

	validate *validator.Validate
}

func NewCustomerValidator(strictPhone bool, region string) *CustomerValidator {
	return &CustomerValidator{
		StrictPhone: strictPhone,
		Region:      region,
		validate:    validator.New(),
	}
}

type fieldRule struct {
	field string
	tag   string
	err   error
}

var customerRules = []fieldRule{
	{field: "name", tag: "required", err: ErrCustomerNameRequired},
	{field: "phone", tag: "required,min=7", err: ErrCustomerPhoneInvalid},
	{field: "address", tag: "required", err: ErrCustomerAddressRequired},
}

// Validate returns the normalized details with the payment method resolved,
// or a *FieldError for the first field that fails.
func (v *CustomerValidator) Validate(details CustomerDetails) (CustomerDetails, error) {
	if v.validate == nil {
		v.validate = validator.New()
	}
	d := details.Normalized()
	values := map[string]string{
		"name":    d.Name,
		"phone":   d.Phone,
		"address": d.Address,
	}

	for _, rule := range customerRules {
		if err := v.validate.Var(values[rule.field], rule.tag); err != nil {
			var ve validator.ValidationErrors
			if !errors.As(err, &ve) {
				return d, err
			}
			return d, &FieldError{Field: rule.field, Err: rule.err}
		}
		if rule.field == "phone" && v.StrictPhone {
			if err := utils.ValidatePhoneNumber(d.Phone, v.Region); err != nil {
				return d, &FieldError{Field: rule.field, Err: ErrCustomerPhoneInvalid}
			}
		}
	}

	method, err := ParsePaymentMethod(string(d.PaymentMethod))
	if err != nil {
		return d, &FieldError{Field: "paymentMethod", Err: err}
	}
	d.PaymentMethod = method
	return d, nil
}
