package backup

import (
	"fmt"
	"strings"
	"time"

	"cable_billing_engine/internal/domain/customer"
)

// CSVHeader is the fixed export column order. Import parses positionally
// against the same order.
const CSVHeader = "ID,Name,Type,Package,Status,Address,Mobile,Last Recharge,Box Number,MAC Address"

const csvDateLayout = "2006-01-02"

var ErrMalformedCSV = fmt.Errorf("malformed CSV payload")

// EncodeCSV renders customers in the fixed tabular export form. A field is
// quoted only when it contains a comma or a quote; inner quotes are doubled.
func EncodeCSV(customers []customer.Customer) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteByte('\n')
	for _, c := range customers {
		lastPayment := ""
		if c.LastPaymentDate != nil {
			lastPayment = c.LastPaymentDate.Format(csvDateLayout)
		}
		fields := []string{
			c.ID,
			c.Name,
			string(c.ServiceType),
			customer.JoinPackages(c.Packages),
			string(c.Status),
			c.Address,
			c.Mobile,
			lastPayment,
			c.BoxNumber,
			c.MACAddress,
		}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCSVField(f))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func escapeCSVField(f string) string {
	if !strings.ContainsAny(f, ",\"") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// DecodeCSV parses an exported payload back into customers. The first line
// is a header and is skipped; anything with fewer than two lines is
// rejected outright.
func DecodeCSV(text string) ([]customer.Customer, error) {
	lines := strings.Split(strings.TrimRight(text, "\r\n"), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: expected a header and at least one row", ErrMalformedCSV)
	}
	customers := make([]customer.Customer, 0, len(lines)-1)
	for n, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitCSVLine(line)
		if len(fields) < 10 {
			return nil, fmt.Errorf("%w: row %d has %d columns, want 10", ErrMalformedCSV, n+2, len(fields))
		}
		c := customer.Customer{
			ID:          fields[0],
			Name:        fields[1],
			ServiceType: customer.ServiceType(fields[2]),
			Packages:    customer.SplitPackages(fields[3]),
			Status:      customer.Status(fields[4]),
			Address:     fields[5],
			Mobile:      fields[6],
			BoxNumber:   fields[8],
			MACAddress:  fields[9],
		}
		if fields[7] != "" {
			t, err := time.Parse(csvDateLayout, fields[7])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d has invalid last recharge date %q", ErrMalformedCSV, n+2, fields[7])
			}
			c.LastPaymentDate = &t
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// splitCSVLine splits one row on commas, honoring double-quoted fields: a
// quote toggles the in-quotes flag and commas inside quotes do not split.
// Doubled quotes inside a quoted field decode to one literal quote.
func splitCSVLine(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(ch)
		}
	}
	fields = append(fields, field.String())
	return fields
}
