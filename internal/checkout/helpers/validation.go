package helpers

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var validate = validator.New()

// Contact is the customer identity captured at checkout.
type Contact struct {
	Email string  `validate:"required,email,max=254"`
	Name  string  `validate:"max=200"`
	Phone *string `validate:"omitempty,max=32"`
}

// ValidateContact normalizes and checks the customer contact.
func ValidateContact(contact Contact) (Contact, error) {
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	contact.Name = strings.TrimSpace(contact.Name)
	if contact.Phone != nil {
		trimmed := strings.TrimSpace(*contact.Phone)
		contact.Phone = nil
		if trimmed != "" {
			contact.Phone = &trimmed
		}
	}

	if err := validate.Struct(contact); err != nil {
		details := map[string]string{}
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				details[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		return Contact{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact").WithDetails(details)
	}
	return contact, nil
}

// ResolveAddress returns the address to persist. Express wallets deliver the
// address after payment, so blanks are filled with placeholders there.
func ResolveAddress(mode enums.CheckoutMode, address types.Address) (types.Address, error) {
	if !mode.RequiresShippingAddress() {
		return address.Placeholder(), nil
	}
	if missing := address.Missing(); len(missing) > 0 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}
	return address, nil
}
