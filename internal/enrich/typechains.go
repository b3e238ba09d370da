package enrich

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/golangsnmp/mibflat/internal/symbols"
	"github.com/golangsnmp/mibflat/mib"
)

// chainSeparator joins the members of a TC resolution chain.
const chainSeparator = "->"

var (
	displayHintRe   = regexp.MustCompile(`DISPLAY-HINT\s*"([^"]*)"`)
	tcStatusRe      = regexp.MustCompile(`STATUS\s+(current|deprecated|obsolete|mandatory|optional)`)
	tcDescRe        = regexp.MustCompile(`DESCRIPTION\s*"([^"]*)"`)
	tcReferenceRe   = regexp.MustCompile(`REFERENCE\s*"([^"]*)"`)
	tcSyntaxRe      = regexp.MustCompile(`SYNTAX\s+([A-Za-z][A-Za-z0-9]*(?:\s+(?:STRING|IDENTIFIER))?)\s*(\([^)]*(?:\([^)]*\))?[^)]*\)|\{[^}]*\})?`)
	enumMemberRe    = regexp.MustCompile(`([a-zA-Z][A-Za-z0-9-]*)\s*\(\s*(-?\d+)\s*\)`)
	typeAssignAltRe = regexp.MustCompile(`::=\s*([A-Za-z][A-Za-z0-9]*(?:\s+(?:STRING|IDENTIFIER))?)\s*(\([^)]*(?:\([^)]*\))?[^)]*\)|\{[^}]*\})?`)
)

// resolveTypeChains collects the distinct non-primitive syntax names
// referenced by the batch, resolves each TC definition once, and applies
// the resolved metadata to every record using that syntax.
func (p *Pipeline) resolveTypeChains(ctx context.Context, objs []*mib.Object, mod *symbols.Module) {
	pending := make(map[string]bool)
	for _, obj := range objs {
		if obj.SyntaxType == "" {
			continue
		}
		if _, primitive := mib.NormalizeBaseType(obj.SyntaxType); primitive {
			continue
		}
		pending[obj.SyntaxType] = true
	}
	if len(pending) == 0 {
		return
	}

	resolved := make(map[string]*mib.TextualConvention, len(pending))
	for name := range pending {
		resolved[name] = p.resolveTC(ctx, name, mod.Name, make(map[string]bool))
	}

	for _, obj := range objs {
		tc := resolved[obj.SyntaxType]
		if tc == nil {
			continue
		}
		obj.TCName = tc.Name
		obj.TCBaseType = tc.BaseType
		obj.TCDisplayHint = tc.DisplayHint
		obj.TCStatus = tc.Status
		obj.TCDescription = tc.Description
		obj.TCConstraints = tc.Constraints
		obj.TCResolutionChain = tc.ResolutionChain
		if len(tc.Enumerations) > 0 {
			obj.TCEnumerations = tc.Enumerations
		}
		if obj.BaseSyntax == "" {
			obj.BaseSyntax = tc.BaseType
		}
		if obj.DisplayHint == "" {
			obj.DisplayHint = tc.DisplayHint
		}
	}
}

// resolveTC resolves one named type: locate its definition among loaded
// modules, merge artifact introspection with source-text scanning (source
// wins for hint, description, and constraints), then follow the base-type
// chain until a primitive is reached. Outcomes, including "not found", are
// memoized on the shared index and not retried within the batch.
func (p *Pipeline) resolveTC(ctx context.Context, name, hintModule string, visited map[string]bool) *mib.TextualConvention {
	if tc, memoized := p.index.TCMemo(name); memoized {
		return tc
	}
	if visited[name] {
		return nil
	}
	visited[name] = true

	definingModule, sym, found := p.findTypeSymbol(name, hintModule)

	var tc *mib.TextualConvention
	if found {
		tc = symbols.TCFromSymbol(definingModule, sym)
	} else {
		tc = &mib.TextualConvention{Name: name, Module: definingModule}
	}

	sourced := false
	if src := p.moduleSource(definingModule); src != nil {
		sourced = parseTCFromSource(src, name, tc)
	}
	if !found && !sourced {
		if p.logEnabled(slog.LevelDebug) {
			p.logger.LogAttrs(ctx, slog.LevelDebug, "type unresolved",
				slog.String("type", name), slog.String("module", hintModule))
		}
		p.index.PutTCMemo(name, nil)
		return nil
	}

	// Fall back to the artifact's delegation chain when the source did not
	// yield a SYNTAX clause.
	if tc.Syntax == "" && found {
		for _, link := range sym.Syntax.Chain {
			if link != name {
				tc.Syntax = link
				break
			}
		}
	}

	p.resolveBaseChain(ctx, tc, definingModule, visited)
	p.index.PutTCMemo(name, tc)
	return tc
}

// resolveBaseChain follows tc's declared base transitively until a member
// of the primitive set terminates the chain. Inherited metadata (hint,
// enums, constraints) fills fields the TC did not declare itself.
func (p *Pipeline) resolveBaseChain(ctx context.Context, tc *mib.TextualConvention, definingModule string, visited map[string]bool) {
	base := tc.Syntax
	if base == "" {
		tc.ResolutionChain = tc.Name
		return
	}

	if canon, primitive := mib.NormalizeBaseType(base); primitive {
		tc.BaseType = canon
		tc.ResolutionChain = tc.Name + chainSeparator + canon
		return
	}

	parent := p.resolveTC(ctx, base, definingModule, visited)
	if parent == nil {
		tc.ResolutionChain = tc.Name + chainSeparator + base
		return
	}

	tc.BaseType = parent.BaseType
	tc.ResolutionChain = tc.Name + chainSeparator + parent.ResolutionChain
	if tc.DisplayHint == "" {
		tc.DisplayHint = parent.DisplayHint
	}
	if len(tc.Enumerations) == 0 && len(parent.Enumerations) > 0 {
		tc.Enumerations = parent.Enumerations
	}
	if tc.Constraints == "" {
		tc.Constraints = parent.Constraints
	}
}

// findTypeSymbol locates the module defining the named type: the hint
// module first, then its imports, then every other loaded module.
func (p *Pipeline) findTypeSymbol(name, hintModule string) (string, symbols.Symbol, bool) {
	search := []string{hintModule}
	if mod, ok := p.index.ModuleSymbols(hintModule); ok {
		search = append(search, mod.Imports...)
	}
	search = append(search, p.index.LoadedModules()...)

	seen := make(map[string]bool, len(search))
	for _, modName := range search {
		if seen[modName] {
			continue
		}
		seen[modName] = true

		mod, ok := p.index.ModuleSymbols(modName)
		if !ok {
			continue
		}
		if sym, ok := mod.Symbols[name]; ok && sym.IsTextualConvention() {
			return mod.Name, sym, true
		}
	}
	return hintModule, symbols.Symbol{}, false
}

// parseTCFromSource scans module source for the named type definition and
// overwrites tc's fields with what the text declares. Source text is the
// primary truth for display hint, description, and constraints: compilers
// routinely drop or rewrite them. Reports whether a definition was found.
func parseTCFromSource(src []byte, name string, tc *mib.TextualConvention) bool {
	idx := findTypeAssignment(src, name)
	if idx < 0 {
		return false
	}
	window := src[idx:]
	if len(window) > maxDescriptionLen+maxClauseGap {
		window = window[:maxDescriptionLen+maxClauseGap]
	}

	if isTCMacro(window) {
		if m := displayHintRe.FindSubmatch(window); m != nil {
			tc.DisplayHint = string(m[1])
		}
		if m := tcStatusRe.FindSubmatch(window); m != nil {
			tc.Status = string(m[1])
		}
		if m := tcDescRe.FindSubmatch(window); m != nil && len(m[1]) < maxDescriptionLen {
			tc.Description = normalizeQuoted(string(m[1]))
		}
		if m := tcReferenceRe.FindSubmatch(window); m != nil {
			tc.Reference = string(m[1])
		}
		if m := tcSyntaxRe.FindSubmatch(window); m != nil {
			applySyntaxClause(tc, string(m[1]), string(m[2]))
		}
		return true
	}

	// Plain type assignment: Name ::= BASE { enums } or Name ::= BASE (range).
	if m := typeAssignAltRe.FindSubmatch(window); m != nil {
		applySyntaxClause(tc, string(m[1]), string(m[2]))
		return true
	}
	return false
}

// findTypeAssignment returns the offset of "name ::=" in src, or -1.
func findTypeAssignment(src []byte, name string) int {
	re, err := regexp.Compile(`(?m)^\s*` + regexp.QuoteMeta(name) + `\s*::=`)
	if err != nil {
		return -1
	}
	loc := re.FindIndex(src)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// isTCMacro reports whether the assignment window opens a
// TEXTUAL-CONVENTION macro body.
func isTCMacro(window []byte) bool {
	head := window
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.Contains(string(head), "TEXTUAL-CONVENTION")
}

// applySyntaxClause records the declared base type plus any inline
// refinement: "( ... )" is a constraint, "{ ... }" an enumeration.
func applySyntaxClause(tc *mib.TextualConvention, base, refinement string) {
	tc.Syntax = canonicalTypeName(base)

	refinement = strings.TrimSpace(refinement)
	switch {
	case strings.HasPrefix(refinement, "("):
		tc.Constraints = strings.TrimSpace(strings.Trim(refinement, "()"))
	case strings.HasPrefix(refinement, "{"):
		enums := make(map[string]int64)
		for _, m := range enumMemberRe.FindAllStringSubmatch(refinement, -1) {
			val, err := strconv.ParseInt(m[2], 10, 64)
			if err != nil {
				continue
			}
			enums[m[1]] = val
		}
		if len(enums) > 0 {
			tc.Enumerations = enums
		}
	}
}

// canonicalTypeName collapses the two-word primitives to their canonical
// spelling so chain walking matches the primitive set.
func canonicalTypeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if canon, ok := mib.NormalizeBaseType(name); ok {
		return canon
	}
	return name
}
