// Package symbols loads compiled symbol artifacts and maintains the shared
// cross-module symbol index used by extraction and enrichment.
package symbols

import "github.com/golangsnmp/mibflat/mib"

// Syntax is a symbol's declared type: the named type, its delegation chain
// down to a primitive, and any inline refinements.
type Syntax struct {
	Type        string           `json:"type,omitempty"`
	Chain       []string         `json:"chain,omitempty"`
	Enumeration map[string]int64 `json:"enumeration,omitempty"`
	Range       string           `json:"range,omitempty"`
	Size        string           `json:"size,omitempty"`
}

// IndexRef is one INDEX clause entry as the compiler reports it.
type IndexRef struct {
	Column  string `json:"column"`
	Implied bool   `json:"implied,omitempty"`
}

// Symbol is one compiled definition from a module artifact. Capability flags
// are computed once at decode; callers branch on the flags instead of
// re-probing optional fields.
type Symbol struct {
	Name        string
	Class       string
	OID         []int
	Status      string
	Description string
	Access      string
	Syntax      Syntax
	Units       string
	Reference   string
	DisplayHint string
	Default     string
	Index       []IndexRef
	Augments    string
	Objects     []string

	HasOID     bool
	HasAccess  bool
	HasSyntax  bool
	HasIndex   bool
	HasObjects bool
}

// symbolDoc is the raw JSON shape inside an artifact's "symbols" map.
type symbolDoc struct {
	Class       string           `json:"class"`
	OID         []int            `json:"oid,omitempty"`
	Status      string           `json:"status,omitempty"`
	Description string           `json:"description,omitempty"`
	MaxAccess   string           `json:"maxaccess,omitempty"`
	Syntax      Syntax           `json:"syntax,omitempty"`
	Units       string           `json:"units,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	DisplayHint string           `json:"displayhint,omitempty"`
	Default     string           `json:"default,omitempty"`
	Index       []IndexRef       `json:"index,omitempty"`
	Augments    string           `json:"augments,omitempty"`
	Objects     []string         `json:"objects,omitempty"`
}

// artifactDoc is the JSON shape of one compiled module artifact.
type artifactDoc struct {
	Module   string               `json:"module"`
	Revision string               `json:"revision,omitempty"`
	Imports  []string             `json:"imports,omitempty"`
	Symbols  map[string]symbolDoc `json:"symbols"`
}

func newSymbol(name string, doc symbolDoc) Symbol {
	return Symbol{
		Name:        name,
		Class:       doc.Class,
		OID:         doc.OID,
		Status:      doc.Status,
		Description: doc.Description,
		Access:      doc.MaxAccess,
		Syntax:      doc.Syntax,
		Units:       doc.Units,
		Reference:   doc.Reference,
		DisplayHint: doc.DisplayHint,
		Default:     doc.Default,
		Index:       doc.Index,
		Augments:    doc.Augments,
		Objects:     doc.Objects,

		HasOID:     len(doc.OID) > 0,
		HasAccess:  doc.MaxAccess != "",
		HasSyntax:  doc.Syntax.Type != "",
		HasIndex:   len(doc.Index) > 0,
		HasObjects: len(doc.Objects) > 0,
	}
}

// IsTextualConvention reports whether the symbol defines a TC.
func (s Symbol) IsTextualConvention() bool {
	return s.Class == "textualconvention"
}

// Module is a loaded artifact: its metadata plus all decoded symbols.
type Module struct {
	Name     string
	Revision string
	Imports  []string
	Symbols  map[string]Symbol
}

// TCFromSymbol builds the introspection view of a TC definition. Source-text
// scanning remains the primary source of truth for hint, description, and
// constraints; this fills what the artifact already carries.
func TCFromSymbol(module string, s Symbol) *mib.TextualConvention {
	tc := &mib.TextualConvention{
		Name:        s.Name,
		Module:      module,
		Status:      s.Status,
		Description: s.Description,
		DisplayHint: s.DisplayHint,
		Syntax:      s.Syntax.Type,
	}
	if len(s.Syntax.Enumeration) > 0 {
		tc.Enumerations = make(map[string]int64, len(s.Syntax.Enumeration))
		for k, v := range s.Syntax.Enumeration {
			tc.Enumerations[k] = v
		}
	}
	if s.Syntax.Range != "" {
		tc.Constraints = s.Syntax.Range
	} else if s.Syntax.Size != "" {
		tc.Constraints = s.Syntax.Size
	}
	return tc
}
