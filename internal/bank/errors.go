// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 這些錯誤屬於商業邏輯層級（非系統錯誤），由上層 shell（HTTP / console）
// 轉換成狀態碼或提示訊息；任何一種都不應讓程式結束。
// 回傳時會以 pkg/errors 附帶帳號資訊，呼叫端請用 errors.Is 判斷。

package bank

import (
	"errors"

	"bankledger/internal/ledger"
)

var (
	// ErrDuplicateID 代表建立帳戶時帳號已存在。
	// 對應 HTTP 409 Conflict。
	ErrDuplicateID = errors.New("account id already exists")

	// ErrNotFound 代表帳戶不存在。
	// 對應 HTTP 404 Not Found。
	ErrNotFound = errors.New("account not found")

	// ErrBadAmount 代表金額非法（存提款 <= 0，或開戶金額為負）。
	// 對應 HTTP 400 Bad Request。
	ErrBadAmount = errors.New("invalid amount")

	// ErrInsufficient 代表餘額不足，提款會使餘額為負。
	// 對應 HTTP 409 Conflict。
	ErrInsufficient = errors.New("insufficient funds")

	// ErrNothingToUndo 代表只剩開戶交易，無可撤銷項目。
	// 與帳本層為同一個值。
	ErrNothingToUndo = ledger.ErrNothingToUndo
)
