package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeader(t *testing.T) {
	cases := map[string]string{
		" Contact Name ":  "contactname",
		"contact_name":    "contactname",
		"CONTACT-NAME":    "contactname",
		"제조사 명":      "제조사명",
		"Product\tCode":   "productcode",
		"ＰＲＯＤＵＣＴ":         "product",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Header(in), "input %q", in)
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "acme corp", Name("  ACME   Corp "))
	assert.Equal(t, "삼성 전자", Name("삼성  전자"))
	assert.Equal(t, "", Name("   "))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "ab-100", Code(" AB - 100 "))
	assert.Equal(t, Code("sku 01"), Code("SKU01"))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "value", Cell("  value\t"))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank([]string{"", " ", " "}))
	assert.False(t, IsBlank([]string{"", "x"}))
}
