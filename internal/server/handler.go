// internal/server/handler.go
//
// Package server 提供 HTTP RESTful 介面，作為 bank 模組外層的 shell。
// 每個 handler 僅負責：
//  1. 接收與驗證 HTTP 請求（帳號、JSON 格式）
//  2. 呼叫 bank.Registry 執行商業邏輯
//  3. 將結果或領域錯誤轉為標準化 JSON 回應
//
// bank 不依賴 HTTP；server 依賴 bank。
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bankledger/internal/bank"
	"bankledger/internal/logger"
)

// Server 為 HTTP 層核心結構，持有注入的 Registry 與 logger。
type Server struct {
	Registry *bank.Registry
	log      zerolog.Logger
}

// NewServer 建立新的 HTTP 伺服器。
func NewServer(r *bank.Registry, log zerolog.Logger) *Server {
	return &Server{Registry: r, log: log}
}

type createRequest struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	ID      int64           `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// accounts 處理：
//   - POST /accounts  → 開戶
//   - GET  /accounts  → 列出所有帳戶（最近建立在前）
func (s *Server) accounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, err, http.StatusBadRequest)
			return
		}
		a, err := s.Registry.CreateAccount(req.ID, req.Name, req.InitialAmount)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)

	case http.MethodGet:
		writeJSON(w, http.StatusOK, slices.Collect(s.Registry.ListAccounts()))
	default:
		methodNotAllowed(w)
	}
}

// accountSubroutes 處理子路徑：
//
//	GET    /accounts/{id}           → 查詢帳戶
//	DELETE /accounts/{id}           → 刪除帳戶
//	POST   /accounts/{id}/deposit   → 存款
//	POST   /accounts/{id}/withdraw  → 提款
//	POST   /accounts/{id}/undo      → 撤銷最近一筆
//	GET    /accounts/{id}/history   → 交易紀錄（由新到舊）
func (s *Server) accountSubroutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/accounts/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeErr(w, fmt.Errorf("invalid account id %q", parts[0]), http.StatusBadRequest)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			a, err := s.Registry.Find(id)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, a)
		case http.MethodDelete:
			if err := s.Registry.Delete(id); err != nil {
				s.fail(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch parts[1] {
	case "deposit", "withdraw":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req amountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, err, http.StatusBadRequest)
			return
		}
		op := s.Registry.Deposit
		if parts[1] == "withdraw" {
			op = s.Registry.Withdraw
		}
		bal, err := op(id, req.Amount)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{ID: id, Balance: bal})

	case "undo":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		u, err := s.Registry.Undo(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)

	case "history":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h, err := s.Registry.GetHistory(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, slices.Collect(h))

	default:
		http.NotFound(w, r)
	}
}

// fail 記錄被拒絕的操作後輸出錯誤。
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Info().Err(err).Str("path", r.URL.Path).Int("status", statusOf(err)).Msg("operation rejected")
	writeBankErr(w, err)
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
