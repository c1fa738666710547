package state

import "github.com/digkill/bizimage/internal/models"

// Ledger tracks the account balance. It does not stop the balance from going
// negative; callers check before debiting.
type Ledger struct {
	account models.Account
}

func NewLedger(account models.Account) *Ledger {
	return &Ledger{account: account}
}

func (l *Ledger) Balance() int {
	return l.account.Credits
}

func (l *Ledger) Debit(n int) {
	l.account.Credits -= n
}

func (l *Ledger) Credit(n int) {
	l.account.Credits += n
}

func (l *Ledger) Account() models.Account {
	return l.account
}
