package services

import (
	"errors"

	"budgetbook/internal/ledger"
)

func isPartial(err error) bool {
	var pf *ledger.PartialFailure
	return errors.As(err, &pf)
}
