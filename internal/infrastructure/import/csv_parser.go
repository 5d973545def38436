// Package csvimport reads CSV uploads into header-keyed rows.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const encodingProbe = 4096

// Parser reads a CSV file whose first line is a header row.
type Parser struct {
	reader  *csv.Reader
	headers []string
	line    int
	maxRows int
	rows    int
}

// Option configures a Parser
type Option func(*Parser, *csv.Reader)

// WithDelimiter sets the field delimiter
func WithDelimiter(d rune) Option {
	return func(_ *Parser, r *csv.Reader) { r.Comma = d }
}

// WithMaxRows rejects files with more than n data rows
func WithMaxRows(n int) Option {
	return func(p *Parser, _ *csv.Reader) { p.maxRows = n }
}

// NewParser strips a UTF-8 BOM, checks the encoding and reads the header row.
// Header names pass through normalize, e.g. to map labels onto field keys.
func NewParser(r io.Reader, normalize func(string) string, opts ...Option) (*Parser, error) {
	br := bufio.NewReaderSize(r, encodingProbe)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xEF\xBB\xBF" {
		_, _ = br.Discard(3)
	}
	probe, err := br.Peek(encodingProbe)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(probe))) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(probe)) {
		return nil, ErrInvalidEncoding
	}

	p := &Parser{reader: csv.NewReader(br)}
	p.reader.FieldsPerRecord = -1
	p.reader.TrimLeadingSpace = true
	p.reader.LazyQuotes = true
	for _, opt := range opts {
		opt(p, p.reader)
	}

	header, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	p.line = 1
	for _, h := range header {
		h = strings.TrimSpace(h)
		if normalize != nil {
			h = normalize(h)
		}
		p.headers = append(p.headers, h)
	}
	return p, nil
}

// trimPartialRune drops a rune cut in half by the probe boundary
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// Missing lists the required headers that are absent
func (p *Parser) Missing(required ...string) []string {
	var out []string
	for _, want := range required {
		found := false
		for _, h := range p.headers {
			if h == want {
				found = true
				break
			}
		}
		if !found {
			out = append(out, want)
		}
	}
	return out
}

// Row is one data line keyed by header
type Row struct {
	Line int
	Data map[string]string
}

// IsEmpty reports whether every cell is blank
func (r Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next non-blank row or io.EOF. A malformed line yields a RowError
// and the parser stays usable.
func (p *Parser) Next() (Row, error) {
	for {
		record, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		p.line++
		if err != nil {
			return Row{}, RowError{Row: p.line, Code: ErrCodeMalformedRow, Message: err.Error()}
		}

		row := Row{Line: p.line, Data: make(map[string]string, len(p.headers))}
		for i, h := range p.headers {
			if h == "" {
				continue
			}
			if i < len(record) {
				row.Data[h] = strings.TrimSpace(record[i])
			} else {
				row.Data[h] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		p.rows++
		if p.maxRows > 0 && p.rows > p.maxRows {
			return Row{}, ErrTooManyRows
		}
		return row, nil
	}
}
