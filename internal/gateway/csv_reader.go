package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"ledger-reconciliation/internal/domain"
)

// Record is one parsed data row keyed by normalized column name.
type Record map[string]string

// ParseTable splits delimited text into records. The first non-blank line is
// the header. A comma inside a double-quoted section is part of the value.
// Short rows are padded with empty values and extra values are dropped; the
// only failures are a missing header or a table without data rows.
func ParseTable(text string) ([]Record, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerAt := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, &domain.ParseError{Reason: "missing header line"}
	}

	headers := splitLine(lines[headerAt])
	for i, h := range headers {
		headers[i] = normalizeColumn(h)
	}

	records := make([]Record, 0, len(lines)-headerAt-1)
	for _, line := range lines[headerAt+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitLine(line)
		record := make(Record, len(headers))
		for i, h := range headers {
			if i < len(values) {
				record[h] = values[i]
			} else {
				record[h] = ""
			}
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, &domain.ParseError{Reason: "no data rows"}
	}
	return records, nil
}

// splitLine scans a single line, toggling the quoted state on every '"'.
func splitLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case ch == ',' && !inQuote:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

func normalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// CandidatesFromRecords maps parsed rows onto import candidates.
func CandidatesFromRecords(records []Record) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, domain.Candidate{
			Date:        r.first("date"),
			Name:        r.first("name", "description", "payee"),
			Amount:      parseAmount(r.first("amount")),
			AccountRef:  r.first("account", "account_name"),
			AccountMask: r.first("account_mask", "mask"),
			AccountID:   r.first("account_id"),
			CategoryRef: r.first("category", "category_name"),
			TagRefs:     splitTags(r.first("tags", "tag")),
			Note:        r.first("note", "notes"),
			Type:        domain.ParseTransactionType(r.first("type")),
		})
	}
	return candidates
}

func (r Record) first(columns ...string) string {
	for _, c := range columns {
		if v := r[c]; v != "" {
			return v
		}
	}
	return ""
}

// parseAmount drops currency symbols, spaces and thousands separators so
// "$1,234.50" reads as 1234.50, and "(4.50)" reads as -4.50. Anything with
// letters, or a parenthesis that does not wrap the whole value, is reported
// as missing along with empty input.
func parseAmount(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	negative := false
	if len(raw) > 1 && strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}

	var b strings.Builder
	for _, r := range raw {
		switch {
		case (r >= '0' && r <= '9') || r == '.' || r == '-':
			b.WriteRune(r)
		case unicode.IsLetter(r) || r == '(' || r == ')':
			return decimal.NullDecimal{}
		}
	}
	if b.Len() == 0 {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.NullDecimal{}
	}
	if negative {
		d = d.Abs().Neg()
	}
	return decimal.NewNullDecimal(d)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// CSVReader loads import candidates from CSV files on disk.
type CSVReader struct{}

// NewCSVReader creates a new reader instance.
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

// ReadCandidates reads and parses the CSV file at path.
func (r *CSVReader) ReadCandidates(ctx context.Context, path string) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file %s: %w", path, err)
	}
	records, err := ParseTable(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse import file %s: %w", path, err)
	}
	return CandidatesFromRecords(records), nil
}
