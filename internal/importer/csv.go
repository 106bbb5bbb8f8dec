package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// Column names understood by ParseCSV. Only date, description and amount are required.
var csvColumns = []string{
	"id", "date", "description", "amount", "debit_credit",
	"counterparty", "category", "subcategory", "tag",
}

var csvAliases = map[string]string{
	"transaction_id": "id",
	"debitcredit":    "debit_credit",
	"direction":      "debit_credit",
	"name":           "description",
	"payee":          "counterparty",
}

// ParseCSV reads a header-driven CSV file. Comma and semicolon delimiters are both accepted.
func ParseCSV(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
	reader.Comma = detectDelimiter(string(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := csvAliases[key]; ok {
			key = alias
		}
		columns[key] = i
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header is missing %q", common.ErrMalformedRecord, required)
		}
	}

	var txns []model.Transaction
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", common.ErrMalformedRecord, line, err)
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		date, err := ParseDate(field("date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := ParseAmount(field("amount"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		txn := model.Transaction{
			ID:           field("id"),
			Date:         date,
			Description:  field("description"),
			Amount:       amount,
			DebitCredit:  model.ParseDirection(field("debit_credit")),
			Counterparty: field("counterparty"),
			Category:     field("category"),
			Subcategory:  field("subcategory"),
			Tag:          field("tag"),
		}
		alignSign(&txn)
		txns = append(txns, txn)
	}

	return txns, nil
}

// detectDelimiter picks ';' when the header line has more semicolons than commas.
func detectDelimiter(data string) rune {
	firstLine, _, _ := strings.Cut(data, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}
