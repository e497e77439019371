package ledger

import "fmt"

// Halves of a compound command, as reported by PartialFailure.
const (
	HalfBudget  = "budget"
	HalfExpense = "expense"
)

// PartialFailure reports a compound command whose first half was applied and
// whose second half failed on a store without transactions. Nothing was rolled back.
//
// It does not match core.ErrStorage; the cause is kept in Err.
type PartialFailure struct {
	Op      string
	Applied string
	Failed  string
	Err     error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s partially applied: %s applied, %s failed: %v", e.Op, e.Applied, e.Failed, e.Err)
}
