// internal/server/response.go
//
// 本檔負責統一 HTTP 回應格式，並集中「領域錯誤 → HTTP 狀態碼」的對照。
//   - 成功回應：JSON（Content-Type: application/json）。
//   - 錯誤回應：JSON {"error": "..."}，狀態碼由 statusOf 決定。
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"bankledger/internal/bank"
)

// writeJSON 統一輸出成功回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 統一輸出錯誤回應。
func writeErr(w http.ResponseWriter, err error, code int) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeBankErr 依領域錯誤種類選擇狀態碼後輸出。
func writeBankErr(w http.ResponseWriter, err error) {
	writeErr(w, err, statusOf(err))
}

// statusOf 將 bank 層錯誤對應到 HTTP 狀態碼；未知錯誤視為 500。
func statusOf(err error) int {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrBadAmount):
		return http.StatusBadRequest
	case errors.Is(err, bank.ErrDuplicateID),
		errors.Is(err, bank.ErrInsufficient),
		errors.Is(err, bank.ErrNothingToUndo):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErr(w, errors.New("method not allowed"), http.StatusMethodNotAllowed)
}
