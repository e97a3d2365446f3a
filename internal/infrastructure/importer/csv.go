// Package importer turns uploaded spreadsheets into RTO jobs.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"rtoflow/internal/core/apperror"
	"rtoflow/internal/domain/rto"
)

// MaxRows bounds one upload.
const MaxRows = 5000

// Row is one parsed spreadsheet line.
type Row struct {
	Line            int
	OrderIdentifier string
	Quantity        int
}

// headerNames are first-column values recognised as a header row.
var headerNames = map[string]struct{}{
	"order":            {},
	"order name":       {},
	"order_name":       {},
	"ordername":        {},
	"order id":         {},
	"order_id":         {},
	"order number":     {},
	"orderidentifier":  {},
	"order identifier": {},
	"awb":              {},
}

// ParseCSV reads (order identifier, quantity) pairs.
//
// Column 1 is the order identifier, column 2 an optional quantity. A missing,
// non-numeric or non-positive quantity becomes 1. Blank lines and rows without an
// identifier are skipped. The first row is dropped when it looks like a header.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var rows []Row
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("malformed CSV: %v", err)).WithCause(err)
		}
		if len(record) == 0 {
			continue
		}

		ident := strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
		if line == 1 && isHeader(ident) {
			continue
		}
		if ident == "" {
			continue
		}

		qty := 1
		if len(record) > 1 {
			qty = parseQuantity(record[1])
		}

		if len(rows) == MaxRows {
			return nil, apperror.NewValidation(fmt.Sprintf("too many rows, limit is %d", MaxRows))
		}
		rows = append(rows, Row{Line: line, OrderIdentifier: ident, Quantity: qty})
	}
	return rows, nil
}

func isHeader(cell string) bool {
	_, ok := headerNames[strings.ToLower(cell)]
	return ok
}

// maxQuantity caps absurd cells; the saga clamps to the remaining quantity anyway.
const maxQuantity = math.MaxInt32

// parseQuantity floors to 1 and caps at maxQuantity. Spreadsheet exports sometimes write "2.0".
func parseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return min(maxQuantity, max(1, n))
	}
	// Covers "2.0" and integers too large for Atoi. NaN fails both comparisons.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 {
		if f >= maxQuantity {
			return maxQuantity
		}
		return int(f)
	}
	return 1
}

// Jobs converts rows into jobs sharing one reason and note.
func Jobs(rows []Row, reason, note string) []rto.ReturnJob {
	jobs := make([]rto.ReturnJob, 0, len(rows))
	for _, r := range rows {
		jobs = append(jobs, rto.ReturnJob{
			OrderIdentifier:   r.OrderIdentifier,
			RequestedQuantity: r.Quantity,
			Reason:            reason,
			Note:              note,
		})
	}
	return jobs
}
