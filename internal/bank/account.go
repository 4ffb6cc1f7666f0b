// internal/bank/account.go
//
// 帳戶內部結構與對外的唯讀摘要型別。

package bank

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bankledger/internal/ledger"
)

// account 為 Registry 內部持有的帳戶。
// mu 序列化同一帳戶的存款、提款、撤銷與歷史讀取；
// closed 於刪除時設定，讓持有舊指標的操作改回 ErrNotFound。
type account struct {
	mu      sync.Mutex
	id      int64
	name    string
	balance decimal.Decimal
	ledger  *ledger.Ledger
	seq     uint64
	closed  bool
}

func (a *account) summary() AccountSummary {
	return AccountSummary{ID: a.id, Name: a.name, Balance: a.balance}
}

// AccountSummary represents an account as seen by callers.
type AccountSummary struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// UndoSummary 描述一次撤銷：被撤銷的交易與撤銷後的新餘額。
type UndoSummary struct {
	Kind    ledger.Kind     `json:"kind"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionSummary represents one ledger entry.
type TransactionSummary struct {
	Kind   ledger.Kind     `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Time   time.Time       `json:"time"`
}
