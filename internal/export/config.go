// Package export rebuilds a partner-shaped spreadsheet from a stored upload
// snapshot and the partner's current export configuration.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const ConfigVersion = 1

const (
	SourceInput = "input"
	SourceConst = "const"
)

var ErrMalformedConfig = errors.New("malformed export config")

// Source resolves the value of one output column. ColumnIndex is 1-based and
// only used by input sources.
type Source struct {
	Type        string `json:"type"`
	ColumnIndex int    `json:"columnIndex,omitempty"`
	Value       string `json:"value,omitempty"`
}

// Column is one output column. A nil Header takes the snapshot header of the
// input column it reads.
type Column struct {
	Header *string `json:"header,omitempty"`
	Source Source  `json:"source"`
}

type Config struct {
	Version        int      `json:"version"`
	CopyPrefixRows bool     `json:"copyPrefixRows,omitempty"`
	Columns        []Column `json:"columns"`
}

// ParseConfig decodes and validates a stored export config.
func ParseConfig(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedConfig)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedConfig)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Version != ConfigVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedConfig, c.Version)
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrMalformedConfig)
	}
	for i, col := range c.Columns {
		switch col.Source.Type {
		case SourceInput:
			if col.Source.ColumnIndex < 1 {
				return fmt.Errorf("%w: columns[%d] needs a columnIndex of 1 or more", ErrMalformedConfig, i)
			}
		case SourceConst:
		default:
			return fmt.Errorf("%w: columns[%d] has source type %q", ErrMalformedConfig, i, col.Source.Type)
		}
	}
	return nil
}
