package mib

// Object is one extracted MIB definition. Records are created by the
// extractor and filled in place by each enrichment pass; after the rows are
// built for a file the records are discarded. Fields carry JSON tags so a
// file's finished result set can round-trip through the result cache.
type Object struct {
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

	Enumerations map[string]int64 `json:"enumerations,omitempty"`

	TableIndexes  []IndexEntry `json:"table_indexes,omitempty"`
	AugmentsTable string       `json:"augments_table,omitempty"`

	// NotificationObjects is the ordered varbind name list of a
	// NOTIFICATION-TYPE. EnterpriseOID is empty under the standard trap
	// subtree, otherwise the notification OID's immediate parent.
	NotificationObjects []string                 `json:"notification_objects,omitempty"`
	NotificationDetail  map[string]*ObjectDetail `json:"notification_objects_detail,omitempty"`
	EnterpriseOID       string                   `json:"enterprise_oid,omitempty"`

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
}

// ObjectDetail is the resolved static identity of an object referenced by a
// notification's OBJECTS clause. Lookups through the shared index return
// details by reference; they are never owned by the referencing record.
type ObjectDetail struct {
	Name        string `json:"name"`
	OID         string `json:"oid,omitempty"`
	Kind        Kind   `json:"kind"`
	Module      string `json:"module,omitempty"`
	SyntaxType  string `json:"syntax_type,omitempty"`
	BaseSyntax  string `json:"base_syntax,omitempty"`
	Access      string `json:"access,omitempty"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`

	TCName        string `json:"tc_name,omitempty"`
	TCBaseType    string `json:"tc_base_type,omitempty"`
	TCDisplayHint string `json:"tc_display_hint,omitempty"`
}

// IsNotification reports whether the record is a notification definition.
func (o *Object) IsNotification() bool { return o.Kind == KindNotification }

// String returns a brief summary: "MODULE::name (oid)".
func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return o.Module + "::" + o.Name + " (" + o.OID + ")"
}
