// Package catalog exposes the XRPL field/format definitions document as a
// read-only lookup table: field name → primitive type tag, transaction type →
// protocol code, transaction type → applicable fields with their requirement
// tier, and the known engine result codes.
//
// The document shape mirrors the upstream definitions.json: TRANSACTION_TYPES
// and TRANSACTION_RESULTS are name → code maps, FIELDS is an ordered list of
// (name, info) pairs. TRANSACTION_FORMATS is the per-type field list that the
// palette and the block editor are driven by.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

//go:embed definitions.json
var embeddedDefinitions []byte

// Requirement tiers in TRANSACTION_FORMATS.
const (
	TierRequired = 0
	TierOptional = 1
	TierDefault  = 2 // filled in by autofill when absent; not required for display
)

// FieldInfo describes a single field from the definitions document.
type FieldInfo struct {
	// Type is the primitive kind tag: AccountID, Amount, UInt8/16/32/64,
	// Number, Hash128/160/192/256, Blob, or a composite tag treated as an
	// opaque string by the value coercion rules.
	Type string `json:"type"`
}

// FormatField is one entry of a transaction format: a field name and its
// requirement tier.
type FormatField struct {
	Name string `json:"name"`
	Tier int    `json:"tier"`
}

// Required reports whether the field must be present on a well-formed
// transaction of its type. Tier 2 fields have defaults and are treated as
// not required.
func (f FormatField) Required() bool {
	return f.Tier == TierRequired
}

// Catalog is an immutable, loaded definitions document.
type Catalog struct {
	txTypes map[string]int
	fields  map[string]FieldInfo
	formats map[string][]FormatField
	results map[string]int
}

type document struct {
	TransactionTypes   map[string]int            `json:"TRANSACTION_TYPES"`
	Fields             []fieldPair               `json:"FIELDS"`
	TransactionResults map[string]int            `json:"TRANSACTION_RESULTS"`
	TransactionFormats map[string][]FormatField  `json:"TRANSACTION_FORMATS"`
}

// fieldPair decodes one ["Name", {"type": ...}] entry.
type fieldPair struct {
	Name string
	Info FieldInfo
}

func (p *fieldPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("field entry must be a (name, info) pair, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Name); err != nil {
		return fmt.Errorf("field name: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Info); err != nil {
		return fmt.Errorf("field info for %q: %w", p.Name, err)
	}
	return nil
}

// Load parses the embedded definitions document.
func Load() (*Catalog, error) {
	return parse(embeddedDefinitions)
}

// LoadFile parses a definitions document from disk, for running against a
// network whose amendments are ahead of the embedded copy.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definitions file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing definitions document: %w", err)
	}
	if len(doc.TransactionTypes) == 0 {
		return nil, fmt.Errorf("definitions document has no transaction types")
	}

	c := &Catalog{
		txTypes: doc.TransactionTypes,
		fields:  make(map[string]FieldInfo, len(doc.Fields)),
		formats: doc.TransactionFormats,
		results: doc.TransactionResults,
	}
	for _, p := range doc.Fields {
		c.fields[p.Name] = p.Info
	}
	return c, nil
}

// ResolveFieldType looks up the declared type of a field. The second return
// is false for unknown field names; callers treat such values as opaque
// strings.
func (c *Catalog) ResolveFieldType(fieldName string) (FieldInfo, bool) {
	info, ok := c.fields[fieldName]
	return info, ok
}

// TypeCode returns the protocol code for a transaction type name.
func (c *Catalog) TypeCode(name string) (int, bool) {
	code, ok := c.txTypes[name]
	return code, ok
}

// TransactionTypes returns the sorted palette of submittable transaction
// types. Entries with negative codes are invalid placeholders and excluded.
func (c *Catalog) TransactionTypes() []string {
	names := make([]string, 0, len(c.txTypes))
	for name, code := range c.txTypes {
		if code < 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Format returns the ordered field list for a transaction type.
func (c *Catalog) Format(txType string) ([]FormatField, bool) {
	format, ok := c.formats[txType]
	return format, ok
}

// ResultCodes returns all known engine result codes, sorted. The UI uses
// these as expected-result suggestions instead of a hardcoded shortlist.
func (c *Catalog) ResultCodes() []string {
	codes := make([]string, 0, len(c.results))
	for code := range c.results {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// KnownResult reports whether a string is a result code in the document.
func (c *Catalog) KnownResult(code string) bool {
	_, ok := c.results[code]
	return ok
}
