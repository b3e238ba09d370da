// Package tabular flattens enriched object records into the fixed-column
// row set downstream consumers depend on.
package tabular

import "github.com/golangsnmp/mibflat/mib"

// BuildRows converts a file's enriched records into flat rows. A
// notification with a non-empty varbind list emits one row per referenced
// name with Sequence 1..N in declared order, combining the notification's
// fields with the referenced object's resolved detail. Every other record
// emits exactly one row with Sequence 0 and empty notification columns.
func BuildRows(objs []*mib.Object) []mib.Row {
	rows := make([]mib.Row, 0, len(objs))
	for _, obj := range objs {
		if obj.IsNotification() && len(obj.NotificationObjects) > 0 {
			for i, name := range obj.NotificationObjects {
				rows = append(rows, notificationRow(obj, name, i+1))
			}
			continue
		}
		rows = append(rows, baseRow(obj))
	}
	return rows
}

// baseRow copies the record's fields into a row, applying the degenerate
// inline-enumeration backfill: a record carrying enumerations that resolved
// to no named TC gets TC base type and status from its own syntax and
// status, so every enumerated row has a consistent shape.
func baseRow(obj *mib.Object) mib.Row {
	row := mib.Row{
		Module:     obj.Module,
		Name:       obj.Name,
		OID:        obj.OID,
		Kind:       obj.Kind,
		Status:     obj.Status,
		Access:     obj.Access,
		SyntaxType: obj.SyntaxType,
		BaseSyntax: obj.BaseSyntax,

		Description:  obj.Description,
		DisplayHint:  obj.DisplayHint,
		Units:        obj.Units,
		DefaultValue: obj.DefaultValue,
		Reference:    obj.Reference,
		ValueRange:   obj.ValueRange,

		Enumerations:  obj.Enumerations,
		TableIndexes:  obj.TableIndexes,
		AugmentsTable: obj.AugmentsTable,

		ParentOID:  obj.ParentOID,
		ParentName: obj.ParentName,
		ParentType: obj.ParentType,

		SourceFile:     obj.SourceFile,
		ModuleRevision: obj.ModuleRevision,
		ModuleImports:  obj.ModuleImports,

		TCName:            obj.TCName,
		TCBaseType:        obj.TCBaseType,
		TCDisplayHint:     obj.TCDisplayHint,
		TCStatus:          obj.TCStatus,
		TCDescription:     obj.TCDescription,
		TCConstraints:     obj.TCConstraints,
		TCResolutionChain: obj.TCResolutionChain,
		TCEnumerations:    obj.TCEnumerations,
	}

	if len(row.Enumerations) > 0 && row.TCName == "" {
		row.TCBaseType = obj.SyntaxType
		row.TCStatus = obj.Status
		if len(row.TCEnumerations) == 0 {
			row.TCEnumerations = row.Enumerations
		}
	}
	return row
}

// notificationRow is the base row plus the notification columns and the
// per-referenced-object columns for one varbind position.
func notificationRow(obj *mib.Object, objectName string, sequence int) mib.Row {
	row := baseRow(obj)
	row.NotificationName = obj.Name
	row.NotificationOID = obj.OID
	row.EnterpriseOID = obj.EnterpriseOID
	row.ObjectName = objectName
	row.ObjectSequence = sequence

	if detail, ok := obj.NotificationDetail[objectName]; ok && detail != nil {
		row.ObjectOID = detail.OID
		row.ObjectSyntax = detail.SyntaxType
		row.ObjectBaseSyntax = detail.BaseSyntax
		row.ObjectAccess = detail.Access
		row.ObjectStatus = detail.Status
		row.ObjectDescription = detail.Description
	}
	return row
}
