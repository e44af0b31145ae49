package txbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrplbench/internal/catalog"
	"github.com/LeJamon/xrplbench/internal/registry"
)

func resolver(t *testing.T) TypeResolver {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return cat.ResolveFieldType
}

func TestBuildSetsTransactionType(t *testing.T) {
	tx := Build(registry.Test{TransactionType: "Payment"}, resolver(t))
	assert.Equal(t, "Payment", tx["TransactionType"])
}

func TestBuildOmitsUnsetTransactionType(t *testing.T) {
	tx := Build(registry.Test{}, resolver(t))
	_, ok := tx["TransactionType"]
	assert.False(t, ok)
}

func TestAmountKindsStayStrings(t *testing.T) {
	tests := []struct {
		name  string
		field string
		raw   string
	}{
		{"xrp drops", "Amount", "1000000"},
		{"fee", "Fee", "12"},
		{"large value", "Amount", "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Build(registry.Test{
				TransactionType: "Payment",
				Fields:          []registry.Field{{Name: tt.field, Value: registry.Scalar(tt.raw)}},
			}, resolver(t))
			assert.Equal(t, tt.raw, tx[tt.field], "amount must remain a string")
		})
	}
}

func TestIntegerCoercion(t *testing.T) {
	tx := Build(registry.Test{
		TransactionType: "Payment",
		Fields: []registry.Field{
			{Name: "DestinationTag", Value: registry.Scalar("5")},
			{Name: "Sequence", Value: registry.Scalar("abc")},
		},
	}, resolver(t))

	assert.Equal(t, int64(5), tx["DestinationTag"])
	// Unparseable numeric text degrades to the original string.
	assert.Equal(t, "abc", tx["Sequence"])
}

func TestJSONLiteralPassthrough(t *testing.T) {
	tx := Build(registry.Test{
		TransactionType: "Payment",
		Fields: []registry.Field{
			{Name: "Memos", Value: registry.Scalar(`[{"Memo":{"MemoData":"6869"}}]`)},
		},
	}, resolver(t))

	memos, ok := tx["Memos"].([]any)
	require.True(t, ok, "valid JSON literals are used verbatim")
	require.Len(t, memos, 1)
}

func TestUnknownFieldStaysString(t *testing.T) {
	tx := Build(registry.Test{
		TransactionType: "Payment",
		Fields:          []registry.Field{{Name: "SomethingCustom", Value: registry.Scalar("hello")}},
	}, resolver(t))
	assert.Equal(t, "hello", tx["SomethingCustom"])
}

func TestEmptyValuesOmitted(t *testing.T) {
	tx := Build(registry.Test{
		TransactionType: "Payment",
		Fields: []registry.Field{
			{Name: "Destination", Value: registry.Scalar("")},
			{Name: "DestinationTag", Value: registry.Scalar("   ")},
			{Name: "Amount", Value: nil},
			{Name: "SendMax", Value: registry.IssuedAmount{}},
		},
	}, resolver(t))

	assert.Len(t, tx, 1) // only TransactionType
}

func TestStructuredAmounts(t *testing.T) {
	tx := Build(registry.Test{
		TransactionType: "Payment",
		Fields: []registry.Field{
			{Name: "Amount", Value: registry.IssuedAmount{Currency: "USD", Issuer: "rIssuer", Value: "10.5"}},
			{Name: "SendMax", Value: registry.TokenAmount{MPTIssuanceID: "00001234", Value: "42"}},
		},
	}, resolver(t))

	assert.Equal(t, map[string]any{
		"currency": "USD",
		"issuer":   "rIssuer",
		"value":    "10.5",
	}, tx["Amount"])
	assert.Equal(t, map[string]any{
		"mpt_issuance_id": "00001234",
		"value":           "42",
	}, tx["SendMax"])
}

func TestBuildIsPureAndIdempotent(t *testing.T) {
	test := registry.Test{
		TransactionType: "Payment",
		Fields: []registry.Field{
			{Name: "Destination", Value: registry.Scalar("rDest")},
			{Name: "Amount", Value: registry.Scalar("1000000")},
			{Name: "DestinationTag", Value: registry.Scalar("7")},
		},
	}
	res := resolver(t)

	first := Build(test, res)
	second := Build(test, res)
	assert.Equal(t, first, second)

	// Mutating the output must not leak back into the test.
	first["Destination"] = "tampered"
	third := Build(test, res)
	assert.Equal(t, second, third)
}
