package ingest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"OrderOps/internal/sheet"
	"OrderOps/internal/textnorm"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var defaultSynonyms []byte

var ErrMissingMandatoryHeader = errors.New("missing mandatory header")

// HeaderMapping maps a canonical field to the zero-based grid column it was
// found in. At most one column per field.
type HeaderMapping map[Field]int

// Has reports whether f was mapped.
func (m HeaderMapping) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Value returns the cell of row mapped to f. ok is false when f has no column.
func (m HeaderMapping) Value(row []string, f Field) (string, bool) {
	idx, ok := m[f]
	if !ok {
		return "", false
	}
	if idx >= len(row) {
		return "", true
	}
	return row[idx], true
}

// Dictionary is the synonym table of one import kind.
type Dictionary struct {
	Kind       Kind
	RequireAny []Field
	aliases    map[string]Field
}

// Lookup resolves a raw header cell to its canonical field.
func (d *Dictionary) Lookup(header string) (Field, bool) {
	f, ok := d.aliases[textnorm.Header(header)]
	return f, ok
}

// Map builds the HeaderMapping for header cells. The leftmost column wins a
// field; unknown headers are ignored.
func (d *Dictionary) Map(header []string) HeaderMapping {
	m := make(HeaderMapping)
	for i, h := range header {
		if h == "" {
			continue
		}
		f, ok := d.Lookup(h)
		if !ok || m.Has(f) {
			continue
		}
		m[f] = i
	}
	return m
}

// Validate fails with ErrMissingMandatoryHeader when none of the kind's
// mandatory fields was mapped.
func (d *Dictionary) Validate(m HeaderMapping) error {
	if len(d.RequireAny) == 0 {
		return nil
	}
	for _, f := range d.RequireAny {
		if m.Has(f) {
			return nil
		}
	}
	names := make([]string, len(d.RequireAny))
	for i, f := range d.RequireAny {
		names[i] = string(f)
	}
	return fmt.Errorf("%w: expected %s", ErrMissingMandatoryHeader, strings.Join(names, " or "))
}

// MappingFromLetters builds a HeaderMapping from a template's
// field -> column-letter table.
func MappingFromLetters(letters map[string]string) (HeaderMapping, error) {
	m := make(HeaderMapping, len(letters))
	for name, letter := range letters {
		f := Field(name)
		if !IsKnownField(f) {
			return nil, fmt.Errorf("unknown field %q in column mappings", name)
		}
		idx, err := sheet.ColumnIndex(letter)
		if err != nil {
			return nil, err
		}
		m[f] = idx
	}
	return m, nil
}

// Dictionaries holds the synonym table of every kind.
type Dictionaries map[Kind]*Dictionary

type synonymFile map[Kind]struct {
	RequireAny []Field             `yaml:"require_any"`
	Fields     map[Field][]string `yaml:"fields"`
}

// DefaultDictionaries parses the embedded synonym tables.
func DefaultDictionaries() (Dictionaries, error) {
	return ParseDictionaries(defaultSynonyms)
}

// LoadDictionaries returns the embedded tables extended with the aliases of
// the YAML file at path. Extra aliases are additive; require_any, when given,
// replaces the built-in rule of that kind.
func LoadDictionaries(path string) (Dictionaries, error) {
	dicts, err := DefaultDictionaries()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return dicts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	extra, err := ParseDictionaries(data)
	if err != nil {
		return nil, err
	}
	for kind, d := range extra {
		base, ok := dicts[kind]
		if !ok {
			dicts[kind] = d
			continue
		}
		for alias, f := range d.aliases {
			if prev, dup := base.aliases[alias]; dup && prev != f {
				return nil, fmt.Errorf("%s: alias %q maps to both %s and %s", kind, alias, prev, f)
			}
			base.aliases[alias] = f
		}
		if len(d.RequireAny) > 0 {
			base.RequireAny = d.RequireAny
		}
	}
	return dicts, nil
}

// ParseDictionaries parses a synonym YAML document.
func ParseDictionaries(data []byte) (Dictionaries, error) {
	var raw synonymFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse synonyms: %w", err)
	}
	out := make(Dictionaries, len(raw))
	for kind, entry := range raw {
		d := &Dictionary{Kind: kind, RequireAny: entry.RequireAny, aliases: map[string]Field{}}
		for _, f := range entry.RequireAny {
			if !IsKnownField(f) {
				return nil, fmt.Errorf("%s: unknown required field %q", kind, f)
			}
		}
		// sorted for deterministic collision messages
		fields := make([]string, 0, len(entry.Fields))
		for f := range entry.Fields {
			fields = append(fields, string(f))
		}
		sort.Strings(fields)
		for _, name := range fields {
			f := Field(name)
			if !IsKnownField(f) {
				return nil, fmt.Errorf("%s: unknown field %q", kind, f)
			}
			for _, alias := range entry.Fields[f] {
				key := textnorm.Header(alias)
				if key == "" {
					continue
				}
				if prev, dup := d.aliases[key]; dup && prev != f {
					return nil, fmt.Errorf("%s: alias %q maps to both %s and %s", kind, alias, prev, f)
				}
				d.aliases[key] = f
			}
		}
		out[kind] = d
	}
	return out, nil
}

// For returns the dictionary of kind.
func (ds Dictionaries) For(kind Kind) (*Dictionary, error) {
	d, ok := ds[kind]
	if !ok {
		return nil, fmt.Errorf("no synonym dictionary for %s", kind)
	}
	return d, nil
}
