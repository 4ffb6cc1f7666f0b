// internal/ledger/errors.go
//
// 帳本層的錯誤。bank 層會直接沿用（或包裝）這些錯誤回傳給呼叫端。

package ledger

import "errors"

var (
	// ErrNothingToUndo 代表帳本只剩開戶交易（或為空），沒有可撤銷的紀錄。
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrInvalidOperation 代表違反帳本結構規則：
	// 非空帳本再寫入 Initial，或空帳本寫入非 Initial。
	ErrInvalidOperation = errors.New("invalid ledger operation")

	// ErrNegativeAmount 代表金額為負。
	ErrNegativeAmount = errors.New("amount must not be negative")
)
