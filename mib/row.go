package mib

// Row is one line of the flat result set, the sole contract downstream
// subsystems depend on. A notification with N referenced objects yields N
// rows with Sequence 1..N in declared order; every other record yields one
// row with Sequence 0 and empty notification columns. The column set is
// fixed regardless of source module.
type Row struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	OID    string `json:"oid"`
	Kind   Kind   `json:"kind"`

	Status     string `json:"status,omitempty"`
	Access     string `json:"access,omitempty"`
	SyntaxType string `json:"syntax_type,omitempty"`
	BaseSyntax string `json:"base_syntax,omitempty"`

	Description  string `json:"description,omitempty"`
	DisplayHint  string `json:"display_hint,omitempty"`
	Units        string `json:"units,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
	Reference    string `json:"reference,omitempty"`
	ValueRange   string `json:"value_range,omitempty"`

	Enumerations  map[string]int64 `json:"enumerations,omitempty"`
	TableIndexes  []IndexEntry     `json:"table_indexes,omitempty"`
	AugmentsTable string           `json:"augments_table,omitempty"`

	ParentOID  string `json:"parent_oid,omitempty"`
	ParentName string `json:"parent_name,omitempty"`
	ParentType string `json:"parent_type,omitempty"`

	SourceFile     string   `json:"source_file,omitempty"`
	ModuleRevision string   `json:"mib_revision,omitempty"`
	ModuleImports  []string `json:"mib_imports,omitempty"`

	TCName            string           `json:"tc_name,omitempty"`
	TCBaseType        string           `json:"tc_base_type,omitempty"`
	TCDisplayHint     string           `json:"tc_display_hint,omitempty"`
	TCStatus          string           `json:"tc_status,omitempty"`
	TCDescription     string           `json:"tc_description,omitempty"`
	TCConstraints     string           `json:"tc_constraints,omitempty"`
	TCResolutionChain string           `json:"tc_resolution_chain,omitempty"`
	TCEnumerations    map[string]int64 `json:"tc_enumerations,omitempty"`

	// Notification columns. Empty for non-notification rows.
	NotificationName string `json:"notification_name,omitempty"`
	NotificationOID  string `json:"notification_oid,omitempty"`
	EnterpriseOID    string `json:"enterprise_oid,omitempty"`

	// Per-referenced-object columns, resolved from the OBJECTS clause.
	ObjectName        string `json:"object_name,omitempty"`
	ObjectOID         string `json:"object_oid,omitempty"`
	ObjectSyntax      string `json:"object_syntax,omitempty"`
	ObjectBaseSyntax  string `json:"object_base_syntax,omitempty"`
	ObjectAccess      string `json:"object_access,omitempty"`
	ObjectStatus      string `json:"object_status,omitempty"`
	ObjectDescription string `json:"object_description,omitempty"`
	ObjectSequence    int    `json:"object_sequence"`
}
