package journal

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/coa/internal/model"
)

// ErrUnknownAccount is returned when a posted line references an account
// missing from the chart.
var ErrUnknownAccount = errors.New("unknown account")

// Apply returns a copy of accts whose Current balance is the sum of posted
// entry lines dated inside period, and whose Closing balance is Opening plus
// Current. Entries dated before period.Start are already part of the opening
// balances and are skipped, as are entries after period.End. A zero bound is
// open. Draft and cancelled entries are ignored. An unbalanced posted entry
// is a *DoubleEntryMismatch and aborts the computation.
func Apply(accts []model.Account, entries []model.JournalEntry, period Period) ([]model.Account, error) {
	out := make([]model.Account, len(accts))
	index := make(map[string]int, len(accts))
	for i, a := range accts {
		a.Current = model.Balance{}
		out[i] = a
		index[a.Code] = i
	}

	for _, e := range entries {
		if !e.Status.Posted() {
			continue
		}
		if !period.Contains(e.Date) {
			continue
		}
		if err := CheckBalance(e); err != nil {
			return nil, err
		}
		for _, l := range e.Lines {
			i, ok := index[l.AccountCode]
			if !ok {
				return nil, fmt.Errorf("entry %s line %s: %w %s", e.ID, l.ID, ErrUnknownAccount, l.AccountCode)
			}
			if out[i].IsGroup {
				return nil, fmt.Errorf("entry %s line %s: account %s is a group account", e.ID, l.ID, l.AccountCode)
			}
			if !out[i].Active {
				return nil, fmt.Errorf("entry %s line %s: account %s is inactive", e.ID, l.ID, l.AccountCode)
			}
			out[i].Current = out[i].Current.Add(model.Balance{Debit: l.Debit(), Credit: l.Credit()})
		}
	}

	for i := range out {
		out[i].Closing = out[i].Opening.Add(out[i].Current)
	}
	return out, nil
}
