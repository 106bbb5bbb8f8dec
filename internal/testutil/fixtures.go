package testutil

import (
	"strconv"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

// FixedTime is the clock used by deterministic tests.
var FixedTime = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// FixedClock returns a clock that always reports FixedTime.
func FixedClock() func() time.Time {
	return func() time.Time { return FixedTime }
}

// SequentialIDs returns a generator producing prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

// Txn builds a transaction with a generated id.
func Txn(description string, amount int64) model.Transaction {
	txn := model.Transaction{
		Date:        FixedTime,
		Description: description,
		Amount:      amount,
	}
	txn.ID = txn.GenerateID()
	return txn
}

// ScenarioTransactions are the canonical classification scenarios keyed by expected tag.
func ScenarioTransactions() map[string]model.Transaction {
	return map[string]model.Transaction{
		model.TagInvestments: Txn("STOCK PURCHASE BROKERAGE LTD", -5000),
		model.TagSavings:     Txn("BUNQ SAVINGS TRANSFER", -20000),
		model.TagIncome:      Txn("MONTHLY SALARY PAYSLIP", 250000),
		model.TagOther:       Txn("RANDOM SHOP XYZ", -1500),
	}
}
