// Package importer turns uploaded statement files into canonical transactions.
package importer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/ofx"
	"github.com/shopspring/decimal"
)

// Format identifies a supported input format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatOFX  Format = "ofx"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "ofx", "qfx":
		return FormatOFX, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, s)
	}
}

// DetectFormat picks the format from a file name.
func DetectFormat(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Importer dispatches to the adapter for each format.
type Importer struct {
	ofx *ofx.Parser
}

// New creates an importer.
func New() *Importer {
	return &Importer{ofx: ofx.NewParser()}
}

// Import parses r as format. A malformed record aborts the whole file.
func (i *Importer) Import(ctx context.Context, r io.Reader, format Format) ([]model.Transaction, error) {
	var (
		txns []model.Transaction
		err  error
	)
	switch format {
	case FormatCSV:
		txns, err = ParseCSV(ctx, r)
	case FormatJSON:
		txns, err = ParseJSON(ctx, r)
	case FormatOFX:
		txns, err = i.ofx.ParseFile(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	for idx := range txns {
		if strings.TrimSpace(txns[idx].ID) == "" {
			txns[idx].ID = txns[idx].GenerateID()
		}
	}
	return txns, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
	"20060102",
	"2006/01/02",
}

// ParseDate accepts the date layouts banks commonly export.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", common.ErrMalformedRecord)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", common.ErrMalformedRecord, s)
}

// ParseAmount reads a major-unit amount such as "-1.234,56", "€ 12.50" or "(45.00)" and
// returns minor units.
func ParseAmount(s string) (int64, error) {
	raw := s
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("€", "", "$", "", "£", "", " ", "", "\u00a0", "", "'", "").Replace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", common.ErrMalformedRecord)
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		// comma is the decimal separator
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", common.ErrMalformedRecord, raw)
	}
	if negative {
		d = d.Neg()
	}
	return model.MinorUnits(d), nil
}

// alignSign makes the amount sign agree with an explicit direction hint.
func alignSign(txn *model.Transaction) {
	switch txn.DebitCredit {
	case model.DirectionDebit:
		if txn.Amount > 0 {
			txn.Amount = -txn.Amount
		}
	case model.DirectionCredit:
		if txn.Amount < 0 {
			txn.Amount = -txn.Amount
		}
	}
}
