package registry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldValue is the tagged variant of a raw user-entered field value: a plain
// scalar string, an issued-currency amount, or a multi-purpose-token amount.
// The transaction builder pattern-matches on the concrete type.
type FieldValue interface {
	isFieldValue()

	// Empty reports whether the value should be treated as "not provided"
	// and the field omitted from the built transaction.
	Empty() bool
}

// Scalar is a plain string value as typed into a block input.
type Scalar string

func (Scalar) isFieldValue() {}

func (s Scalar) Empty() bool { return strings.TrimSpace(string(s)) == "" }

// IssuedAmount is a non-native currency amount: currency code, issuing
// account, and decimal value. All members are transmitted as strings.
type IssuedAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

func (IssuedAmount) isFieldValue() {}

func (a IssuedAmount) Empty() bool {
	return strings.TrimSpace(a.Currency) == "" &&
		strings.TrimSpace(a.Issuer) == "" &&
		strings.TrimSpace(a.Value) == ""
}

// TokenAmount is a multi-purpose-token amount: issuance id and decimal value.
type TokenAmount struct {
	MPTIssuanceID string `json:"mpt_issuance_id"`
	Value         string `json:"value"`
}

func (TokenAmount) isFieldValue() {}

func (a TokenAmount) Empty() bool {
	return strings.TrimSpace(a.MPTIssuanceID) == "" && strings.TrimSpace(a.Value) == ""
}

// Field is one (name, value) entry of a test's ordered field list.
type Field struct {
	Name  string
	Value FieldValue
}

// fieldJSON is the persisted wire form. Scalars are stored as strings,
// structured amounts as their object form, matching the ledger's own JSON
// representation of amounts.
type fieldJSON struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch v := f.Value.(type) {
	case nil:
		raw = []byte(`""`)
	case Scalar:
		raw, err = json.Marshal(string(v))
	case IssuedAmount:
		raw, err = json.Marshal(v)
	case TokenAmount:
		raw, err = json.Marshal(v)
	default:
		err = fmt.Errorf("unknown field value variant %T", f.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(fieldJSON{Name: f.Name, Value: raw})
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var wire fieldJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	f.Name = wire.Name

	var s string
	if err := json.Unmarshal(wire.Value, &s); err == nil {
		f.Value = Scalar(s)
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(wire.Value, &probe); err != nil {
		return fmt.Errorf("field %q: value is neither string nor object", wire.Name)
	}
	if _, ok := probe["mpt_issuance_id"]; ok {
		var v TokenAmount
		if err := json.Unmarshal(wire.Value, &v); err != nil {
			return fmt.Errorf("field %q: %w", wire.Name, err)
		}
		f.Value = v
		return nil
	}
	var v IssuedAmount
	if err := json.Unmarshal(wire.Value, &v); err != nil {
		return fmt.Errorf("field %q: %w", wire.Name, err)
	}
	f.Value = v
	return nil
}
