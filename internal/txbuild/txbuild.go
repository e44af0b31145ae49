// Package txbuild turns a test's loose field values into a submittable
// transaction object. The builder is pure: no I/O, deterministic for a given
// test, and it never fails: malformed input degrades to the original string.
package txbuild

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/LeJamon/xrplbench/internal/catalog"
	"github.com/LeJamon/xrplbench/internal/registry"
)

// TypeResolver looks up a field's declared primitive kind. Unknown fields
// return ok=false and their values stay opaque strings.
type TypeResolver func(fieldName string) (catalog.FieldInfo, bool)

// Build converts a test into transaction JSON. Fields with empty values are
// omitted, structured amounts become nested objects with string members, and
// scalars are coerced by the field's declared kind.
func Build(t registry.Test, resolve TypeResolver) map[string]any {
	tx := make(map[string]any, len(t.Fields)+1)
	if t.TransactionType != "" {
		tx["TransactionType"] = t.TransactionType
	}

	for _, f := range t.Fields {
		if f.Value == nil || f.Value.Empty() {
			continue
		}
		switch v := f.Value.(type) {
		case registry.Scalar:
			tx[f.Name] = coerceScalar(f.Name, strings.TrimSpace(string(v)), resolve)
		case registry.IssuedAmount:
			// Amount sub-fields are always decimal strings on the ledger.
			tx[f.Name] = map[string]any{
				"currency": v.Currency,
				"issuer":   v.Issuer,
				"value":    v.Value,
			}
		case registry.TokenAmount:
			tx[f.Name] = map[string]any{
				"mpt_issuance_id": v.MPTIssuanceID,
				"value":           v.Value,
			}
		}
	}
	return tx
}

func coerceScalar(fieldName, raw string, resolve TypeResolver) any {
	info, known := resolve(fieldName)

	// XRP drop amounts are decimal strings; numeric parsing would corrupt
	// large values, so Amount kinds are never JSON-parsed.
	if known && info.Type == "Amount" {
		return raw
	}

	// Integer kinds parse to integers; unparseable text keeps the original
	// string rather than being zeroed.
	if known && integerKind(info.Type) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	}

	// Structured literals pasted into plain inputs (arrays, objects, quoted
	// strings) are used verbatim when they parse as JSON.
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}
	return raw
}

func integerKind(kind string) bool {
	return strings.HasPrefix(kind, "UInt") || kind == "Number"
}
