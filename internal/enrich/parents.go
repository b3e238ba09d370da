package enrich

import (
	"strings"

	"github.com/golangsnmp/mibflat/mib"
)

// wellKnownParent is one entry of the fixed standard OID prefix table.
type wellKnownParent struct {
	name string
	kind string
}

// wellKnownOIDs covers the standard tree roots and the common mib-2 and
// snmpModules anchors, so parents resolve even when the defining standard
// module was never loaded.
var wellKnownOIDs = map[string]wellKnownParent{
	"0":                 {"ccitt", "node"},
	"1":                 {"iso", "node"},
	"2":                 {"joint-iso-ccitt", "node"},
	"1.3":               {"org", "node"},
	"1.3.6":             {"dod", "node"},
	"1.3.6.1":           {"internet", "node"},
	"1.3.6.1.1":         {"directory", "node"},
	"1.3.6.1.2":         {"mgmt", "node"},
	"1.3.6.1.2.1":       {"mib-2", "node"},
	"1.3.6.1.2.1.1":     {"system", "node"},
	"1.3.6.1.2.1.2":     {"interfaces", "node"},
	"1.3.6.1.2.1.2.2":   {"ifTable", "table"},
	"1.3.6.1.2.1.2.2.1": {"ifEntry", "row"},
	"1.3.6.1.2.1.3":     {"at", "node"},
	"1.3.6.1.2.1.4":     {"ip", "node"},
	"1.3.6.1.2.1.5":     {"icmp", "node"},
	"1.3.6.1.2.1.6":     {"tcp", "node"},
	"1.3.6.1.2.1.7":     {"udp", "node"},
	"1.3.6.1.2.1.10":    {"transmission", "node"},
	"1.3.6.1.2.1.11":    {"snmp", "node"},
	"1.3.6.1.2.1.31":    {"ifMIB", "node"},
	"1.3.6.1.3":         {"experimental", "node"},
	"1.3.6.1.4":         {"private", "node"},
	"1.3.6.1.4.1":       {"enterprises", "node"},
	"1.3.6.1.5":         {"security", "node"},
	"1.3.6.1.6":         {"snmpV2", "node"},
	"1.3.6.1.6.1":       {"snmpDomains", "node"},
	"1.3.6.1.6.2":       {"snmpProxys", "node"},
	"1.3.6.1.6.3":       {"snmpModules", "node"},
	"1.3.6.1.6.3.1":     {"snmpMIB", "node"},
	"1.3.6.1.6.3.1.1.4": {"snmpTrap", "node"},
	"1.3.6.1.6.3.1.1.5": {"snmpTraps", "node"},
}

// resolveParents fills parent OID, name, and kind for every record: the
// parent OID is the record's OID minus its last arc, resolved against the
// batch first, then the shared index, then the well-known prefix table. An
// unresolvable parent stays empty; that is not an error.
//
// Resolving parents is also when table columns become distinguishable from
// scalars: an accessible object whose parent is a table row is a column.
func (p *Pipeline) resolveParents(objs []*mib.Object) {
	batchByOID := make(map[string]*mib.Object, len(objs))
	for _, obj := range objs {
		if obj.OID != "" {
			batchByOID[obj.OID] = obj
		}
	}

	for _, obj := range objs {
		if obj.OID == "" {
			continue
		}
		dot := strings.LastIndexByte(obj.OID, '.')
		if dot < 0 {
			continue
		}
		obj.ParentOID = obj.OID[:dot]

		if parent, ok := batchByOID[obj.ParentOID]; ok {
			obj.ParentName = parent.Name
			obj.ParentType = parent.Kind.String()
			if parent.Kind == mib.KindTableRow && obj.Kind == mib.KindScalar {
				obj.Kind = mib.KindTableColumn
			}
			continue
		}

		if parent, ok := p.index.ObjectByOID(obj.ParentOID); ok {
			obj.ParentName = parent.Name
			obj.ParentType = parent.Kind.String()
			if parent.Kind == mib.KindTableRow && obj.Kind == mib.KindScalar {
				obj.Kind = mib.KindTableColumn
			}
			continue
		}

		if known, ok := wellKnownOIDs[obj.ParentOID]; ok {
			obj.ParentName = known.name
			obj.ParentType = known.kind
		}
	}
}
