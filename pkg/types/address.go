package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderValue fills address fields that express wallets supply later.
const PlaceholderValue = "pending"

// Address is a shipping destination persisted as a JSON document on the order.
type Address struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Placeholder returns an address whose required fields carry PlaceholderValue,
// keeping any values the caller already knows.
func (a Address) Placeholder() Address {
	fill := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return PlaceholderValue
		}
		return v
	}
	out := a
	out.Name = fill(a.Name)
	out.Line1 = fill(a.Line1)
	out.City = fill(a.City)
	out.PostalCode = fill(a.PostalCode)
	out.Country = fill(a.Country)
	return out
}

// Missing lists the json names of required fields that are blank.
func (a Address) Missing() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("name", a.Name)
	check("line1", a.Line1)
	check("city", a.City)
	check("postal_code", a.PostalCode)
	check("country", a.Country)
	return missing
}

// Value marshals the address as JSON.
func (a Address) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal %w", err)
	}
	return string(raw), nil
}

// Scan decodes a JSON document produced by Value.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("address: unmarshal %w", err)
	}
	return nil
}
