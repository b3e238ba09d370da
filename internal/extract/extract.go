// Package extract converts compiled symbols into object records. Conversion
// is deliberately lenient: an absent or malformed attribute leaves the field
// empty instead of discarding the record.
package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/golangsnmp/mibflat/internal/symbols"
	"github.com/golangsnmp/mibflat/mib"
)

// standardTrapSubtree is snmpModules (1.3.6.1.6.3); notifications under it
// are well-known standard traps and carry no enterprise OID.
const standardTrapSubtree = "1.3.6.1.6.3"

// classKinds maps a compiler symbol class directly to a record kind.
// Classes not listed fall through to capability-based classification.
var classKinds = map[string]mib.Kind{
	"notificationtype":  mib.KindNotification,
	"traptype":          mib.KindNotification,
	"objectidentity":    mib.KindIdentifier,
	"moduleidentity":    mib.KindIdentifier,
	"textualconvention": mib.KindTextualConvention,
	"typedeclaration":   mib.KindTextualConvention,
}

// instanceClasses are non-addressable instance pseudo-symbols the compiler
// emits for scalar instances; they produce no record.
var instanceClasses = map[string]bool{
	"instance":          true,
	"mibscalarinstance": true,
}

// CreateObject builds a record from one compiled symbol, or nil for
// instance pseudo-symbols.
func CreateObject(symName string, sym symbols.Symbol, moduleName string) *mib.Object {
	if instanceClasses[sym.Class] || strings.Contains(symName, ".") {
		return nil
	}

	obj := &mib.Object{
		Module: moduleName,
		Name:   symName,
		Kind:   classify(sym),
	}

	if sym.HasOID {
		obj.OID = joinOID(sym.OID)
	}
	obj.Status = sym.Status
	obj.Description = sym.Description
	obj.Access = sym.Access
	obj.Units = sym.Units
	obj.Reference = sym.Reference
	obj.DisplayHint = sym.DisplayHint
	obj.DefaultValue = sym.Default
	obj.AugmentsTable = sym.Augments

	if sym.HasSyntax {
		obj.SyntaxType = sym.Syntax.Type
		obj.BaseSyntax = baseSyntax(sym.Syntax)
		obj.ValueRange = valueRange(sym.Syntax)
		if len(sym.Syntax.Enumeration) > 0 {
			obj.Enumerations = make(map[string]int64, len(sym.Syntax.Enumeration))
			for name, val := range sym.Syntax.Enumeration {
				obj.Enumerations[name] = val
			}
		}
	}

	if sym.HasIndex {
		obj.TableIndexes = make([]mib.IndexEntry, 0, len(sym.Index))
		for _, idx := range sym.Index {
			obj.TableIndexes = append(obj.TableIndexes, mib.IndexEntry{
				Column:  idx.Column,
				Implied: idx.Implied,
			})
		}
	}

	if obj.Kind == mib.KindNotification {
		obj.NotificationObjects = append([]string(nil), sym.Objects...)
		obj.EnterpriseOID = enterpriseOID(obj.OID)
	}

	return obj
}

// classify applies the explicit class table first, then falls back to the
// symbol's capabilities.
func classify(sym symbols.Symbol) mib.Kind {
	if kind, ok := classKinds[sym.Class]; ok {
		return kind
	}

	switch {
	case sym.HasAccess && sym.HasIndex:
		return mib.KindTableRow
	case sym.HasAccess:
		return mib.KindScalar
	case sym.HasObjects:
		return mib.KindNotification
	default:
		return mib.KindOther
	}
}

// joinOID renders the integer path as a dotted string.
func joinOID(oid []int) string {
	if len(oid) == 0 {
		return ""
	}
	var b strings.Builder
	for i, arc := range oid {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(arc))
	}
	return b.String()
}

// baseSyntax walks the syntax delegation chain until it reaches a member of
// the fixed primitive set, or returns "" when the chain never terminates.
func baseSyntax(syn symbols.Syntax) string {
	chain := syn.Chain
	if len(chain) == 0 && syn.Type != "" {
		chain = []string{syn.Type}
	}
	for _, name := range chain {
		if canon, ok := mib.NormalizeBaseType(name); ok {
			return canon
		}
	}
	return ""
}

func valueRange(syn symbols.Syntax) string {
	if syn.Range != "" {
		return syn.Range
	}
	return syn.Size
}

// enterpriseOID applies the notification enterprise heuristic: empty under
// the well-known standard trap subtree, otherwise the OID's immediate
// parent.
func enterpriseOID(oid string) string {
	if oid == "" || oid == standardTrapSubtree || strings.HasPrefix(oid, standardTrapSubtree+".") {
		return ""
	}
	dot := strings.LastIndexByte(oid, '.')
	if dot < 0 {
		return ""
	}
	return oid[:dot]
}

// Batch converts every symbol of a loaded module, stamping the source file
// on each record. Records come out ordered by OID, then name, so results
// are deterministic for identical input.
func Batch(mod *symbols.Module, sourceFile string) []*mib.Object {
	names := make([]string, 0, len(mod.Symbols))
	for name := range mod.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	var objs []*mib.Object
	for _, name := range names {
		obj := CreateObject(name, mod.Symbols[name], mod.Name)
		if obj == nil {
			continue
		}
		obj.SourceFile = sourceFile
		objs = append(objs, obj)
	}

	sort.SliceStable(objs, func(i, j int) bool {
		return oidLess(objs[i].OID, objs[j].OID)
	})
	return objs
}

// oidLess orders dotted OIDs numerically, arc by arc. Empty OIDs sort last.
func oidLess(a, b string) bool {
	if a == "" || b == "" {
		return b == "" && a != ""
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, _ := strconv.Atoi(as[i])
		bi, _ := strconv.Atoi(bs[i])
		if ai != bi {
			return ai < bi
		}
	}
	return len(as) < len(bs)
}
