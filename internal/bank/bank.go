// internal/bank/bank.go

// Package bank 定義帳戶登錄表 (Registry)：帳戶建立、查詢、刪除、列出，
// 以及存款、提款、撤銷。餘額變動一律與帳本 (ledger) 變動一起提交，
// 前置條件全部檢查通過後才動手，失敗時不留任何部分狀態。
//
// 鎖的分工：
//   - Registry.mu（讀寫鎖）保護 帳號 → 帳戶 的對照表（建立、刪除、列出）。
//   - account.mu 序列化同一帳戶的存款、提款、撤銷。
//
// 取得順序固定為 Registry.mu → account.mu，反向永不發生。
package bank

import (
	"cmp"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bankledger/internal/ledger"
)

// Registry 為聚合根 (Aggregate Root)：管理全部帳戶。
// 由呼叫端以 NewRegistry 明確建立，沒有全域單例。
type Registry struct {
	mu    sync.RWMutex
	seq   uint64
	accts map[int64]*account

	log zerolog.Logger
	now func() time.Time
}

// Option 調整 Registry 的建立參數。
type Option func(*Registry)

// WithLogger 設定記錄每筆已提交變動的 logger；預設不輸出。
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithClock 替換交易時間來源，測試用。
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry 建立空白登錄表。
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		accts: make(map[int64]*account),
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateAccount 以呼叫端指定的帳號開戶，帳本以一筆 Initial 交易起始。
// 開戶金額不得為負（可為 0）；帳號重複回傳 ErrDuplicateID，不建立任何東西。
func (r *Registry) CreateAccount(id int64, name string, initial decimal.Decimal) (AccountSummary, error) {
	if initial.IsNegative() {
		return AccountSummary{}, errors.Wrapf(ErrBadAmount, "initial amount %s", initial)
	}
	l := ledger.New(ledger.WithClock(r.now))
	if err := l.Append(ledger.Initial, initial); err != nil {
		return AccountSummary{}, errors.Wrapf(err, "account %d", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accts[id]; ok {
		return AccountSummary{}, errors.Wrapf(ErrDuplicateID, "account %d", id)
	}
	r.seq++
	a := &account{id: id, name: name, balance: initial, ledger: l, seq: r.seq}
	r.accts[id] = a

	r.log.Debug().
		Int64("account_id", id).
		Str("name", name).
		Str("balance", initial.String()).
		Msg("account created")
	return a.summary(), nil
}

// Find 依帳號取得帳戶摘要；不存在回傳 ErrNotFound。
func (r *Registry) Find(id int64) (AccountSummary, error) {
	var out AccountSummary
	err := r.withAccount(id, func(a *account) error {
		out = a.summary()
		return nil
	})
	return out, err
}

// Deposit 存款：金額需 > 0。回傳新餘額。
func (r *Registry) Deposit(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrBadAmount, "deposit %s", amount)
	}
	var bal decimal.Decimal
	err := r.withAccount(id, func(a *account) (err error) {
		bal, err = r.apply(a, ledger.Deposit, amount)
		return err
	})
	return bal, err
}

// Withdraw 提款：金額需 > 0 且不得超過餘額（永不透支）。回傳新餘額。
func (r *Registry) Withdraw(id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrBadAmount, "withdraw %s", amount)
	}
	var bal decimal.Decimal
	err := r.withAccount(id, func(a *account) (err error) {
		bal, err = r.apply(a, ledger.Withdraw, amount)
		return err
	})
	return bal, err
}

// Undo 撤銷該帳戶最近一筆存款或提款，並回補餘額。
// 只剩開戶交易時回傳 ErrNothingToUndo，餘額與帳本皆不變。
func (r *Registry) Undo(id int64) (UndoSummary, error) {
	var out UndoSummary
	err := r.withAccount(id, func(a *account) error {
		tx, err := a.ledger.UndoLast()
		if err != nil {
			return errors.Wrapf(err, "account %d", id)
		}
		a.balance = tx.Kind.Reverse(a.balance, tx.Amount)
		out = UndoSummary{Kind: tx.Kind, Amount: tx.Amount, Balance: a.balance}

		r.log.Debug().
			Int64("account_id", id).
			Stringer("kind", tx.Kind).
			Str("amount", tx.Amount.String()).
			Str("balance", a.balance.String()).
			Msg("transaction undone")
		return nil
	})
	return out, err
}

// Delete 移除帳戶與其整本帳本；之後同帳號的任何操作皆回傳 ErrNotFound。
func (r *Registry) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accts[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "account %d", id)
	}
	delete(r.accts, id)

	a.mu.Lock()
	a.closed = true
	a.ledger = nil
	a.mu.Unlock()

	r.log.Debug().Int64("account_id", id).Msg("account deleted")
	return nil
}

// ListAccounts 回傳呼叫當下所有帳戶的快照，最近建立者在前。
// 回傳的序列可重複迭代，內容固定為該次快照。
func (r *Registry) ListAccounts() iter.Seq[AccountSummary] {
	r.mu.RLock()
	accts := make([]*account, 0, len(r.accts))
	for _, a := range r.accts {
		accts = append(accts, a)
	}
	slices.SortFunc(accts, func(x, y *account) int { return cmp.Compare(y.seq, x.seq) })

	out := make([]AccountSummary, 0, len(accts))
	for _, a := range accts {
		a.mu.Lock()
		out = append(out, a.summary())
		a.mu.Unlock()
	}
	r.mu.RUnlock()

	return slices.Values(out)
}

// GetHistory 回傳帳戶交易紀錄的快照，由新到舊排列。
func (r *Registry) GetHistory(id int64) (iter.Seq[TransactionSummary], error) {
	var out []TransactionSummary
	err := r.withAccount(id, func(a *account) error {
		out = make([]TransactionSummary, 0, a.ledger.Len())
		for tx := range a.ledger.History() {
			out = append(out, TransactionSummary{Kind: tx.Kind, Amount: tx.Amount, Time: tx.Time})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Values(out), nil
}

// withAccount 在帳戶鎖內執行 fn；帳戶不存在或已刪除時回傳 ErrNotFound。
func (r *Registry) withAccount(id int64, fn func(a *account) error) error {
	r.mu.RLock()
	a, ok := r.accts[id]
	r.mu.RUnlock()
	if !ok {
		return errors.Wrapf(ErrNotFound, "account %d", id)
	}
	return a.do(fn)
}

// do 在帳戶鎖內執行 fn。查表後、取得鎖前帳戶可能已被 Delete，
// 此時 closed 已設定，回傳 ErrNotFound 而不碰已釋放的帳本。
func (a *account) do(fn func(a *account) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.Wrapf(ErrNotFound, "account %d", a.id)
	}
	return fn(a)
}

// apply 計算新餘額、寫入帳本，兩者都成功才提交餘額。
// 呼叫端須持有 a.mu。
func (r *Registry) apply(a *account, kind ledger.Kind, amount decimal.Decimal) (decimal.Decimal, error) {
	next := kind.Effect(a.balance, amount)
	if next.IsNegative() {
		return a.balance, errors.Wrapf(ErrInsufficient, "account %d: balance %s, withdraw %s", a.id, a.balance, amount)
	}
	if err := a.ledger.Append(kind, amount); err != nil {
		return a.balance, errors.Wrapf(err, "account %d", a.id)
	}
	a.balance = next

	r.log.Debug().
		Int64("account_id", a.id).
		Stringer("kind", kind).
		Str("amount", amount.String()).
		Str("balance", next.String()).
		Msg("transaction committed")
	return next, nil
}
