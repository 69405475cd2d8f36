// Package csvparser turns uploaded CSV and XLSX catalogs into header-keyed rows.
package csvparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"retail-scraper-service/internal/apperrors"
)

// Row maps a header name to the cell value of one record.
type Row map[string]string

// Options configures parsing. The zero value is valid.
type Options struct {
	// Transform post-processes every decoded row before it is returned.
	Transform func(Row) Row
}

// Parse decodes raw CSV bytes. A leading byte-order mark is removed, any of
// \r\n, \n or \r ends a line, header names are trimmed and repeated headers
// are renamed name, name_1, name_2, ...
func Parse(raw []byte, opt Options) ([]Row, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CSV: %w", err)
	}

	content := normalizeNewlines(string(decoded))
	if content == "" {
		return nil, apperrors.EmptyInputError()
	}

	headerLine, body, _ := strings.Cut(content, "\n")
	if strings.TrimSpace(headerLine) == "" {
		return nil, apperrors.EmptyInputError()
	}

	headers, err := csv.NewReader(strings.NewReader(headerLine)).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	headers = DisambiguateHeaders(headers)

	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line+1, err)
		}
		rows = append(rows, buildRow(headers, record, opt))
		line++
	}

	return rows, nil
}

// DisambiguateHeaders keeps the first occurrence of a header and renames later
// ones with the next free numeric suffix. Applying it to its own output is a no-op.
func DisambiguateHeaders(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	next := make(map[string]int)

	for i, header := range headers {
		name := header
		if seen[name] {
			n := next[header]
			for {
				n++
				candidate := fmt.Sprintf("%s_%d", header, n)
				if !seen[candidate] {
					name = candidate
					break
				}
			}
			next[header] = n
		}
		seen[name] = true
		out[i] = name
	}

	return out
}

// normalizeNewlines turns CRLF and bare CR record separators into LF.
// Carriage returns inside quoted cells are kept.
func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	quoted := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			quoted = !quoted
		case c == '\r' && !quoted:
			if i+1 < len(s) && s[i+1] == '\n' {
				continue
			}
			c = '\n'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// buildRow pads short records with empty values and ignores surplus cells.
func buildRow(headers, record []string, opt Options) Row {
	row := make(Row, len(headers))
	for i, header := range headers {
		if i < len(record) {
			row[header] = record[i]
		} else {
			row[header] = ""
		}
	}
	if opt.Transform != nil {
		row = opt.Transform(row)
	}
	return row
}
