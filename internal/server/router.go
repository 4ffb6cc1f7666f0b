// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊與中介層組裝。
//   - handler.go 定義「如何處理請求」
//   - router.go 定義「請求如何被導向」
//   - cmd/server/main.go 組裝整體應用（注入 Registry、logger）
package server

import "net/http"

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	v1 := http.NewServeMux()

	// 健康檢查
	v1.HandleFunc("/health", s.health)

	// 帳戶操作：
	//   - GET  /accounts          → 列出帳戶
	//   - POST /accounts          → 開戶
	v1.HandleFunc("/accounts", s.accounts)

	// 帳戶子操作：
	//   - GET|DELETE /accounts/{id}
	//   - POST       /accounts/{id}/deposit
	//   - POST       /accounts/{id}/withdraw
	//   - POST       /accounts/{id}/undo
	//   - GET        /accounts/{id}/history
	v1.HandleFunc("/accounts/", s.accountSubroutes)

	// 所有端點同時掛在 /api/v1/ 與根路徑下。
	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", v1))
	root.Handle("/", v1)

	return requestLogger(s.log)(recovery(root))
}
