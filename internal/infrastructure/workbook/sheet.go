package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// HeaderMode controls how a sheet's column names are normalized
type HeaderMode int

const (
	// HeaderAsIs keeps column names exactly as written
	HeaderAsIs HeaderMode = iota
	// HeaderTrim strips surrounding whitespace
	HeaderTrim
	// HeaderTrimLower strips whitespace and lowercases
	HeaderTrimLower
)

// Normalize applies the mode to a column name
func (m HeaderMode) Normalize(name string) string {
	switch m {
	case HeaderTrim:
		return strings.TrimSpace(name)
	case HeaderTrimLower:
		return strings.ToLower(strings.TrimSpace(name))
	default:
		return name
	}
}

// SheetReader exposes one worksheet as header-keyed rows
type SheetReader struct {
	name      string
	headers   []string
	headerMap map[string]int
	rows      [][]string
}

// Row is a data row keyed by normalized header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the trimmed value for a column
func (r *Row) Get(header string) string {
	return strings.TrimSpace(r.Data[header])
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// OpenSheet reads a worksheet. Cell values are read raw so date cells come
// back as Excel serial numbers rather than display strings.
func OpenSheet(f *excelize.File, name string, mode HeaderMode) (*SheetReader, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	s := &SheetReader{
		name:      name,
		headerMap: make(map[string]int),
	}
	if len(rows) == 0 {
		return s, nil
	}

	s.headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header := mode.Normalize(h)
		s.headers[i] = header
		if _, dup := s.headerMap[header]; !dup {
			s.headerMap[header] = i
		}
	}
	s.rows = rows[1:]
	return s, nil
}

// Name returns the worksheet name
func (s *SheetReader) Name() string {
	return s.name
}

// Headers returns the normalized header names
func (s *SheetReader) Headers() []string {
	return s.headers
}

// HasHeader checks if a header exists
func (s *SheetReader) HasHeader(name string) bool {
	_, ok := s.headerMap[name]
	return ok
}

// ValidateHeaders returns the required headers that are missing
func (s *SheetReader) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !s.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Rows returns the non-empty data rows. Line numbers are 1-based sheet rows,
// the header being row 1.
func (s *SheetReader) Rows() []*Row {
	out := make([]*Row, 0, len(s.rows))
	for i, raw := range s.rows {
		row := &Row{
			LineNumber: i + 2,
			Data:       make(map[string]string, len(s.headerMap)),
		}
		for header, idx := range s.headerMap {
			if idx < len(raw) {
				row.Data[header] = raw[idx]
			} else {
				row.Data[header] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		out = append(out, row)
	}
	return out
}
