package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/shopspring/decimal"
)

// jsonRecord mirrors model.Transaction with looser amount and date types.
type jsonRecord struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Amount       json.RawMessage `json:"amount"`
	DebitCredit  string          `json:"debitCredit"`
	Counterparty string          `json:"counterparty"`
	Category     string          `json:"category"`
	Subcategory  string          `json:"subcategory"`
	Tag          string          `json:"tag"`
}

// ParseJSON reads an array of transaction records. Integer amounts are minor units; strings
// and fractional numbers are major units.
func ParseJSON(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	var records []jsonRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}

	txns := make([]model.Transaction, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date, err := ParseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		amount, err := jsonAmount(rec.Amount)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		txn := model.Transaction{
			ID:           strings.TrimSpace(rec.ID),
			Date:         date,
			Description:  strings.TrimSpace(rec.Description),
			Amount:       amount,
			DebitCredit:  model.ParseDirection(rec.DebitCredit),
			Counterparty: rec.Counterparty,
			Category:     rec.Category,
			Subcategory:  rec.Subcategory,
			Tag:          rec.Tag,
		}
		alignSign(&txn)
		txns = append(txns, txn)
	}
	return txns, nil
}

func jsonAmount(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: missing amount", common.ErrMalformedRecord)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
		}
		return ParseAmount(s)
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %s", common.ErrMalformedRecord, raw)
	}
	if d.IsInteger() {
		return d.IntPart(), nil
	}
	return model.MinorUnits(d), nil
}
