package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RowError reports a CSV line that could not be converted.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseCSV converts a bank export into unbooked rows for administration.
// Incoming amounts debit the bank account, outgoing amounts credit it; the
// counter side is left empty for pattern matching. p is validated first,
// which fills its defaults.
func ParseCSV(r io.Reader, p *Profile, administration string) ([]*Transaction, error) {
	if administration == "" {
		return nil, ErrTenantRequired
	}
	if p == nil {
		return nil, fmt.Errorf("%w: no profile", ErrInvalidProfile)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = []rune(p.Delimiter)[0]
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBatch
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx, err := columnIndex(header, p)
	if err != nil {
		return nil, err
	}

	var rows []*Transaction
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		if blank(rec) {
			continue
		}
		tx, err := convertRow(rec, idx, p, administration)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		rows = append(rows, tx)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	return rows, nil
}

type fieldIndex map[string]int

func columnIndex(header []string, p *Profile) (fieldIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	idx := make(fieldIndex)
	want := map[string]string{
		"date":        p.Columns.Date,
		"description": p.Columns.Description,
		"amount":      p.Columns.Amount,
		"ref1":        p.Columns.Ref1,
		"ref2":        p.Columns.Ref2,
		"ref3":        p.Columns.Ref3,
		"ref4":        p.Columns.Ref4,
		"sign":        p.SignColumn,
	}
	for field, name := range want {
		if name == "" {
			continue
		}
		i, ok := pos[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w %q: column %q not in header", ErrInvalidProfile, p.Name, name)
		}
		idx[field] = i
	}
	return idx, nil
}

func (idx fieldIndex) get(rec []string, field string) string {
	i, ok := idx[field]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func convertRow(rec []string, idx fieldIndex, p *Profile, administration string) (*Transaction, error) {
	date, err := time.Parse(p.DateLayout, idx.get(rec, "date"))
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	amount, err := parseAmount(idx.get(rec, "amount"), p.DecimalComma)
	if err != nil {
		return nil, err
	}
	if p.SignColumn != "" {
		amount = amount.Abs()
		if strings.EqualFold(idx.get(rec, "sign"), p.OutgoingMarker) {
			amount = amount.Neg()
		}
	}
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	tx := &Transaction{
		Date:           date,
		Description:    idx.get(rec, "description"),
		Amount:         amount.Abs(),
		Ref1:           idx.get(rec, "ref1"),
		Ref2:           idx.get(rec, "ref2"),
		Ref3:           idx.get(rec, "ref3"),
		Ref4:           idx.get(rec, "ref4"),
		Administration: administration,
	}
	if amount.IsNegative() {
		tx.Credit = p.BankAccount
	} else {
		tx.Debet = p.BankAccount
	}
	return tx, nil
}

// parseAmount accepts "1234.56", "-1.234,56" (decimal comma) and a leading
// plus sign.
func parseAmount(s string, decimalComma bool) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
