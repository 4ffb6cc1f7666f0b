// internal/ledger/transaction.go

package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind 為交易種類，僅有 Initial / Deposit / Withdraw 三種。
type Kind int

const (
	Initial Kind = iota + 1
	Deposit
	Withdraw
)

var kindNames = map[Kind]string{
	Initial:  "Initial",
	Deposit:  "Deposit",
	Withdraw: "Withdraw",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText 讓 Kind 在 JSON 中以名稱輸出。
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText 接受 "Initial" / "Deposit" / "Withdraw"。
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", string(b))
}

// Effect 回傳此種交易套用到餘額上的結果。
// Initial 直接設定餘額；Deposit 加；Withdraw 減。
func (k Kind) Effect(balance, amount decimal.Decimal) decimal.Decimal {
	switch k {
	case Initial:
		return amount
	case Deposit:
		return balance.Add(amount)
	case Withdraw:
		return balance.Sub(amount)
	}
	return balance
}

// Reverse 回傳撤銷此種交易後的餘額；與 Effect 互為反函數。
// Initial 不可撤銷，原值返回。
func (k Kind) Reverse(balance, amount decimal.Decimal) decimal.Decimal {
	switch k {
	case Deposit:
		return balance.Sub(amount)
	case Withdraw:
		return balance.Add(amount)
	}
	return balance
}

// Transaction 為帳本中的一筆不可變紀錄。
type Transaction struct {
	Kind   Kind            `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Time   time.Time       `json:"time"`
}
