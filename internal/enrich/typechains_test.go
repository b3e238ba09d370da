package enrich

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangsnmp/mibflat/internal/symbols"
	"github.com/golangsnmp/mibflat/mib"
)

const tcSource = `
TC-MIB DEFINITIONS ::= BEGIN

AdminState ::= TEXTUAL-CONVENTION
    DISPLAY-HINT "d"
    STATUS current
    DESCRIPTION "Administrative state of a component."
    SYNTAX BaseState

BaseState ::= INTEGER { up(1), down(2) }

END
`

func tcModules() map[string]*symbols.Module {
	return map[string]*symbols.Module{
		"TEST-MIB": {Name: "TEST-MIB", Imports: []string{"TC-MIB"}, Symbols: map[string]symbols.Symbol{}},
		"TC-MIB": {Name: "TC-MIB", Symbols: map[string]symbols.Symbol{
			"AdminState": {
				Name:      "AdminState",
				Class:     "textualconvention",
				Status:    "current",
				Syntax:    symbols.Syntax{Type: "BaseState"},
				HasSyntax: true,
			},
			"BaseState": {
				Name:      "BaseState",
				Class:     "textualconvention",
				Syntax:    symbols.Syntax{Type: "Integer32", Enumeration: map[string]int64{"up": 1, "down": 2}},
				HasSyntax: true,
			},
		}},
	}
}

func TestResolveTCChain(t *testing.T) {
	p := newTestPipeline(t, tcModules(), map[string]string{"TC-MIB": tcSource})

	tc := p.resolveTC(context.Background(), "AdminState", "TEST-MIB", make(map[string]bool))
	require.NotNil(t, tc)

	assert.Equal(t, "AdminState", tc.Name)
	assert.Equal(t, "TC-MIB", tc.Module)
	assert.Equal(t, "Integer32", tc.BaseType)
	assert.Equal(t, "AdminState->BaseState->Integer32", tc.ResolutionChain)
	assert.Equal(t, "d", tc.DisplayHint)
	assert.Equal(t, "current", tc.Status)
	assert.Equal(t, "Administrative state of a component.", tc.Description)
	assert.Equal(t, int64(1), tc.Enumerations["up"], "enumerations inherited from the base")
}

func TestResolveTCMemoized(t *testing.T) {
	p := newTestPipeline(t, tcModules(), map[string]string{"TC-MIB": tcSource})

	first := p.resolveTC(context.Background(), "AdminState", "TEST-MIB", make(map[string]bool))
	second := p.resolveTC(context.Background(), "AdminState", "TEST-MIB", make(map[string]bool))
	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestResolveTCNotFoundMemoizedNegative(t *testing.T) {
	p := newTestPipeline(t, tcModules(), nil)

	tc := p.resolveTC(context.Background(), "MysteryType", "TEST-MIB", make(map[string]bool))
	assert.Nil(t, tc)

	memo, memoized := p.index.TCMemo("MysteryType")
	require.True(t, memoized, "the failed lookup is memoized")
	assert.Nil(t, memo)
}

func TestResolveTCUnresolvedBase(t *testing.T) {
	modules := map[string]*symbols.Module{
		"TEST-MIB": {Name: "TEST-MIB", Symbols: map[string]symbols.Symbol{
			"Dangling": {
				Name:      "Dangling",
				Class:     "textualconvention",
				Syntax:    symbols.Syntax{Type: "UnknownBase"},
				HasSyntax: true,
			},
		}},
	}
	p := newTestPipeline(t, modules, nil)

	tc := p.resolveTC(context.Background(), "Dangling", "TEST-MIB", make(map[string]bool))
	require.NotNil(t, tc)
	assert.Equal(t, "", tc.BaseType)
	assert.Equal(t, "Dangling->UnknownBase", tc.ResolutionChain,
		"the chain records the dead end without a primitive terminator")
}

func TestResolveTCCycleTerminates(t *testing.T) {
	src := `
LOOP-MIB DEFINITIONS ::= BEGIN
TypeA ::= TEXTUAL-CONVENTION
    STATUS current
    DESCRIPTION "a"
    SYNTAX TypeB
TypeB ::= TEXTUAL-CONVENTION
    STATUS current
    DESCRIPTION "b"
    SYNTAX TypeA
END
`
	modules := map[string]*symbols.Module{
		"LOOP-MIB": {Name: "LOOP-MIB", Symbols: map[string]symbols.Symbol{}},
	}
	p := newTestPipeline(t, modules, map[string]string{"LOOP-MIB": src})

	tc := p.resolveTC(context.Background(), "TypeA", "LOOP-MIB", make(map[string]bool))
	require.NotNil(t, tc)
	assert.Equal(t, "TypeA->TypeB->TypeA", tc.ResolutionChain)
	assert.Equal(t, "", tc.BaseType)
}

func TestResolveTypeChainsAppliesToRecords(t *testing.T) {
	p := newTestPipeline(t, tcModules(), map[string]string{"TC-MIB": tcSource})
	mod := &symbols.Module{Name: "TEST-MIB", Imports: []string{"TC-MIB"}}

	objs := []*mib.Object{
		{Name: "stateObject", SyntaxType: "AdminState"},
		{Name: "plainObject", SyntaxType: "Integer32"},
	}
	p.resolveTypeChains(context.Background(), objs, mod)

	state := objs[0]
	assert.Equal(t, "AdminState", state.TCName)
	assert.Equal(t, "Integer32", state.TCBaseType)
	assert.Equal(t, "AdminState->BaseState->Integer32", state.TCResolutionChain)
	assert.Equal(t, "d", state.TCDisplayHint)
	assert.Equal(t, "Integer32", state.BaseSyntax, "base syntax backfilled from the chain")
	assert.Equal(t, "d", state.DisplayHint, "record hint backfilled from the TC")
	assert.Equal(t, int64(2), state.TCEnumerations["down"])

	plain := objs[1]
	assert.Equal(t, "", plain.TCName, "primitive syntax needs no resolution")
}

func TestParseTCFromSourcePlainAssignment(t *testing.T) {
	src := []byte("SIMPLE-MIB DEFINITIONS ::= BEGIN\nKBytes ::= Integer32 (0..2147483647)\nEND\n")
	tc := &mib.TextualConvention{Name: "KBytes"}

	require.True(t, parseTCFromSource(src, "KBytes", tc))
	assert.Equal(t, "Integer32", tc.Syntax)
	assert.Equal(t, "0..2147483647", tc.Constraints)
}

func TestParseTCFromSourceDescriptionCeiling(t *testing.T) {
	src := []byte("BIG-MIB DEFINITIONS ::= BEGIN\nBigType ::= TEXTUAL-CONVENTION\n" +
		"    STATUS current\n    DESCRIPTION \"" + strings.Repeat("x", maxDescriptionLen) +
		"\"\n    SYNTAX Integer32\nEND\n")
	tc := &mib.TextualConvention{Name: "BigType"}

	require.True(t, parseTCFromSource(src, "BigType", tc))
	assert.Equal(t, "", tc.Description, "oversized description text is dropped")
	assert.Equal(t, "current", tc.Status)
	assert.Equal(t, "Integer32", tc.Syntax)
}

func TestCanonicalTypeName(t *testing.T) {
	assert.Equal(t, "OctetString", canonicalTypeName("OCTET  STRING"))
	assert.Equal(t, "ObjectIdentifier", canonicalTypeName("OBJECT IDENTIFIER"))
	assert.Equal(t, "Integer32", canonicalTypeName("INTEGER"))
	assert.Equal(t, "MyType", canonicalTypeName("MyType"))
}
