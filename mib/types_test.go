package mib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindRoundtrip(t *testing.T) {
	kinds := []Kind{
		KindOther, KindScalar, KindTableRow, KindTableColumn,
		KindNotification, KindIdentifier, KindTextualConvention,
	}
	for _, k := range kinds {
		assert.Equal(t, k, KindFromString(k.String()))
	}
	assert.Equal(t, KindOther, KindFromString("no-such-kind"))
}

func TestKindMarshalText(t *testing.T) {
	text, err := KindTableColumn.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "table_column", string(text))

	var k Kind
	assert.NoError(t, k.UnmarshalText([]byte("notification")))
	assert.Equal(t, KindNotification, k)
}

func TestNormalizeBaseType(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		primitive bool
	}{
		{"Integer32", "Integer32", true},
		{"INTEGER", "Integer32", true},
		{"OCTET STRING", "OctetString", true},
		{"OBJECT IDENTIFIER", "ObjectIdentifier", true},
		{"Counter", "Counter32", true},
		{"Gauge", "Gauge32", true},
		{"BITS", "Bits", true},
		{"DisplayString", "DisplayString", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, primitive := NormalizeBaseType(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.primitive, primitive, tt.in)
	}
}

func TestIsNotification(t *testing.T) {
	assert.True(t, (&Object{Kind: KindNotification}).IsNotification())
	assert.False(t, (&Object{Kind: KindScalar}).IsNotification())
}
