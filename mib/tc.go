package mib

// TextualConvention is a named syntax layered on a primitive type. Resolution
// walks the base-type chain until a member of [BaseTypes] is reached;
// ResolutionChain records the walk as "TC1->TC2->Integer32".
type TextualConvention struct {
	Name        string `json:"name"`
	Module      string `json:"module,omitempty"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
	Reference   string `json:"reference,omitempty"`
	DisplayHint string `json:"display_hint,omitempty"`

	// Syntax is the declared base as written (possibly another TC name);
	// BaseType is the primitive the chain terminates at.
	Syntax      string `json:"syntax,omitempty"`
	BaseType    string `json:"base_type,omitempty"`
	Constraints string `json:"constraints,omitempty"`

	Enumerations    map[string]int64 `json:"enumerations,omitempty"`
	ResolutionChain string           `json:"resolution_chain,omitempty"`
}
