package backup

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
)

// CSVHeader is the exact first line of a CSV export.
const CSVHeader = "issuer,label,secret,type,algorithm,digits,period,folder"

var csvColumns = strings.Split(CSVHeader, ",")

// WriteCSV writes the header followed by one line per record. A field is
// quoted only when it holds a comma, a double quote or a line break.
func WriteCSV(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(CSVHeader + "\n"); err != nil {
		return err
	}

	for _, r := range records {
		fields := []string{
			r.Issuer,
			r.Label,
			r.Secret,
			r.Type,
			r.Algorithm,
			strconv.Itoa(r.Digits),
			strconv.Itoa(r.Period),
			r.Folder,
		}
		for i, f := range fields {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(csvEscape(f)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ReadCSV parses a CSV export. The header must match CSVHeader; missing
// trailing columns are treated as empty and numeric columns default when
// blank.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if len(header) < len(csvColumns)-1 {
		return nil, ErrInvalidFormat
	}
	for i, col := range header {
		if i >= len(csvColumns) || strings.TrimSpace(strings.ToLower(col)) != csvColumns[i] {
			return nil, ErrInvalidFormat
		}
	}

	records := make([]Record, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ErrInvalidFormat
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		get := func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}

		digits, err := atoiOr(get(5), 0)
		if err != nil {
			return nil, ErrInvalidFormat
		}
		period, err := atoiOr(get(6), 0)
		if err != nil {
			return nil, ErrInvalidFormat
		}

		records = append(records, Record{
			Issuer:    get(0),
			Label:     get(1),
			Secret:    get(2),
			Type:      get(3),
			Algorithm: get(4),
			Digits:    digits,
			Period:    period,
			Folder:    get(7),
		})
	}

	return records, nil
}

func atoiOr(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
