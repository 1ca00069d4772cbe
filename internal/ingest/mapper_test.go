package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapNormalizesAndFirstColumnWins(t *testing.T) {
	d := dict(t, KindManufacturer)
	m := d.Map([]string{"Unrelated", " Contact_Name ", "제조사명", "E-MAIL", "name", "담당자"})

	assert.Equal(t, HeaderMapping{
		FieldContactName: 1,
		FieldName:        2,
		FieldEmail:       3,
	}, m)
	assert.NoError(t, d.Validate(m))
}

func TestValidateRequiresMandatoryField(t *testing.T) {
	d := dict(t, KindProduct)
	m := d.Map([]string{"상품명", "원가"})
	assert.ErrorIs(t, d.Validate(m), ErrMissingMandatoryHeader)

	mall := dict(t, KindMallOrder)
	assert.NoError(t, mall.Validate(mall.Map([]string{"주문번호", "상품명"})))
	assert.ErrorIs(t, mall.Validate(mall.Map([]string{"주문번호", "수량"})), ErrMissingMandatoryHeader)
}

func TestHeaderMappingValue(t *testing.T) {
	m := HeaderMapping{FieldName: 0, FieldMemo: 5}
	row := []string{"Acme", "x"}

	v, ok := m.Value(row, FieldName)
	assert.True(t, ok)
	assert.Equal(t, "Acme", v)

	v, ok = m.Value(row, FieldMemo)
	assert.True(t, ok, "mapped column past the row end reads as empty")
	assert.Empty(t, v)

	_, ok = m.Value(row, FieldEmail)
	assert.False(t, ok)
}

func TestMappingFromLetters(t *testing.T) {
	m, err := MappingFromLetters(map[string]string{"productCode": "B", "quantity": "AA"})
	require.NoError(t, err)
	assert.Equal(t, HeaderMapping{FieldProductCode: 1, FieldQuantity: 26}, m)

	_, err = MappingFromLetters(map[string]string{"colour": "A"})
	assert.Error(t, err)
	_, err = MappingFromLetters(map[string]string{"productCode": "1A"})
	assert.Error(t, err)
}

func TestParseDictionariesRejectsCollisions(t *testing.T) {
	_, err := ParseDictionaries([]byte(`
manufacturer:
  fields:
    name: [company]
    memo: [Company]
`))
	assert.ErrorContains(t, err, "maps to both")

	_, err = ParseDictionaries([]byte(`
manufacturer:
  fields:
    colour: [paint]
`))
	assert.ErrorContains(t, err, "unknown field")
}

func TestLoadDictionariesExtendsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
manufacturer:
  fields:
    name: [공급사]
`), 0o600))

	ds, err := LoadDictionaries(path)
	require.NoError(t, err)
	d, err := ds.For(KindManufacturer)
	require.NoError(t, err)

	f, ok := d.Lookup("공급사")
	assert.True(t, ok)
	assert.Equal(t, FieldName, f)
	f, ok = d.Lookup("제조사명")
	assert.True(t, ok, "built-in aliases survive")
	assert.Equal(t, FieldName, f)
	assert.Equal(t, []Field{FieldName}, d.RequireAny)

	require.NoError(t, os.WriteFile(path, []byte(`
manufacturer:
  fields:
    memo: [제조사명]
`), 0o600))
	_, err = LoadDictionaries(path)
	assert.Error(t, err)
}
