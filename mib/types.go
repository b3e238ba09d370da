// Package mib defines the record model produced by the extraction and
// enrichment pipeline: per-definition object records, resolved textual
// convention metadata, and the flat rows handed to downstream consumers.
package mib

// Kind classifies an object record by its role in the MIB tree.
type Kind int

const (
	KindOther Kind = iota
	KindScalar
	KindTableRow
	KindTableColumn
	KindNotification
	KindIdentifier
	KindTextualConvention
)

var kindNames = [...]string{
	"other",
	"scalar",
	"table_row",
	"table_column",
	"notification",
	"identifier",
	"textual_convention",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// KindFromString returns the Kind for its canonical name, defaulting to
// KindOther for unknown input.
func KindFromString(s string) Kind {
	for i, name := range kindNames {
		if name == s {
			return Kind(i)
		}
	}
	return KindOther
}

// MarshalText encodes the canonical name, so JSON carries "scalar" rather
// than an enum ordinal.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	*k = KindFromString(string(text))
	return nil
}

// BaseTypes is the fixed primitive set that terminates every type chain.
var BaseTypes = map[string]bool{
	"Integer32":        true,
	"OctetString":      true,
	"ObjectIdentifier": true,
	"IpAddress":        true,
	"Counter32":        true,
	"Counter64":        true,
	"Gauge32":          true,
	"TimeTicks":        true,
	"Unsigned32":       true,
	"Bits":             true,
	"Opaque":           true,
}

// baseTypeAliases maps SMI spellings onto the canonical primitive names.
var baseTypeAliases = map[string]string{
	"INTEGER":           "Integer32",
	"Integer":           "Integer32",
	"OCTET STRING":      "OctetString",
	"OBJECT IDENTIFIER": "ObjectIdentifier",
	"ObjectID":          "ObjectIdentifier",
	"NetworkAddress":    "IpAddress",
	"Counter":           "Counter32",
	"Gauge":             "Gauge32",
	"BITS":              "Bits",
}

// NormalizeBaseType maps a syntax name onto its canonical primitive name.
// The second result reports whether the name is (an alias of) a primitive.
func NormalizeBaseType(name string) (string, bool) {
	if BaseTypes[name] {
		return name, true
	}
	if canon, ok := baseTypeAliases[name]; ok {
		return canon, true
	}
	return name, false
}

// IndexEntry is one column of an INDEX clause, in declared order.
type IndexEntry struct {
	Column  string `json:"column"`
	Implied bool   `json:"implied,omitempty"`
}
