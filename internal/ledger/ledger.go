// internal/ledger/ledger.go

// Package ledger 實作單一帳戶的交易堆疊：
// 最舊的一筆永遠是 Initial，新交易壓入頂端，撤銷只能彈出頂端（LIFO）。
// 帳本本身不持有餘額，只負責結構；餘額同步由 bank 層處理。
//
// Ledger 非並行安全，呼叫端（bank.Registry）以帳戶鎖保護。
package ledger

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger 以切片當堆疊，entries[0] 為開戶交易，尾端為最新交易。
type Ledger struct {
	entries []Transaction
	now     func() time.Time
}

// Option 調整 Ledger 的建立參數。
type Option func(*Ledger)

// WithClock 替換時間來源，測試用。
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New 建立空帳本；第一筆 Append 必須是 Initial。
func New(opts ...Option) *Ledger {
	l := &Ledger{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append 壓入一筆新交易。
// 規則：金額不得為負；Initial 只能寫入空帳本；其餘種類只能寫入已有 Initial 的帳本。
func (l *Ledger) Append(kind Kind, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	switch kind {
	case Initial:
		if len(l.entries) != 0 {
			return ErrInvalidOperation
		}
	case Deposit, Withdraw:
		if len(l.entries) == 0 {
			return ErrInvalidOperation
		}
	default:
		return ErrInvalidOperation
	}
	l.entries = append(l.entries, Transaction{Kind: kind, Amount: amount, Time: l.now()})
	return nil
}

// UndoLast 彈出並回傳最新一筆交易。
// 只剩 Initial（或帳本為空）時回傳 ErrNothingToUndo，帳本不變。
func (l *Ledger) UndoLast() (Transaction, error) {
	if len(l.entries) <= 1 {
		return Transaction{}, ErrNothingToUndo
	}
	last := len(l.entries) - 1
	tx := l.entries[last]
	l.entries[last] = Transaction{}
	l.entries = l.entries[:last]
	return tx, nil
}

// Len 回傳帳本筆數（含 Initial）。
func (l *Ledger) Len() int { return len(l.entries) }

// History 由新到舊逐筆產出交易。
// 迭代期間不得修改帳本。
func (l *Ledger) History() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for i := len(l.entries) - 1; i >= 0; i-- {
			if !yield(l.entries[i]) {
				return
			}
		}
	}
}

// Replay 由舊到新重放整個帳本，得出應有的餘額。
func (l *Ledger) Replay() decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range l.entries {
		balance = tx.Kind.Effect(balance, tx.Amount)
	}
	return balance
}
