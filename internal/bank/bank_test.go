// internal/bank/bank_test.go
//
// 本檔為 Registry 的單元與整合測試。
// 覆蓋：開戶、存提款、撤銷、刪除、列出、交易紀錄，
// 以及「餘額恆等於帳本重放結果」等不變量與並行安全。
// 所有測試皆為 in-memory 執行，不依賴外部服務。

package bank

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bankledger/internal/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// find 為小工具：安全取出帳戶摘要，失敗即讓測試結束。
func find(t *testing.T, r *Registry, id int64) AccountSummary {
	t.Helper()
	a, err := r.Find(id)
	if err != nil {
		t.Fatalf("Find(%d) err=%v", id, err)
	}
	return a
}

func history(t *testing.T, r *Registry, id int64) []TransactionSummary {
	t.Helper()
	seq, err := r.GetHistory(id)
	if err != nil {
		t.Fatalf("GetHistory(%d) err=%v", id, err)
	}
	return slices.Collect(seq)
}

// checkConsistent 驗證快取餘額等於帳本由舊到新重放的結果。
func checkConsistent(t *testing.T, r *Registry, id int64) {
	t.Helper()
	r.mu.RLock()
	a := r.accts[id]
	r.mu.RUnlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.balance.Equal(a.ledger.Replay()) {
		t.Fatalf("balance=%s replay=%s", a.balance, a.ledger.Replay())
	}
}

// TestScenario 依序走過開戶 → 存款 → 透支失敗 → 提款 → 撤銷 → 撤銷到底。
func TestScenario(t *testing.T) {
	r := NewRegistry()

	// 1️⃣ 開戶
	a, err := r.CreateAccount(1, "Alice", d("100.0"))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != 1 || a.Name != "Alice" || !a.Balance.Equal(d("100")) {
		t.Fatalf("created=%+v", a)
	}
	if h := history(t, r, 1); len(h) != 1 || h[0].Kind != ledger.Initial || !h[0].Amount.Equal(d("100")) {
		t.Fatalf("history=%+v", h)
	}

	// 2️⃣ 存款
	bal, err := r.Deposit(1, d("50.0"))
	if err != nil || !bal.Equal(d("150")) {
		t.Fatalf("deposit bal=%s err=%v", bal, err)
	}
	h := history(t, r, 1)
	if len(h) != 2 || h[0].Kind != ledger.Deposit || h[1].Kind != ledger.Initial {
		t.Fatalf("history=%+v", h)
	}

	// 3️⃣ 透支
	if _, err := r.Withdraw(1, d("200.0")); !errors.Is(err, ErrInsufficient) {
		t.Fatalf("want ErrInsufficient, got %v", err)
	}
	if got := find(t, r, 1).Balance; !got.Equal(d("150")) {
		t.Fatalf("balance=%s want 150", got)
	}

	// 4️⃣ 提款
	bal, err = r.Withdraw(1, d("50.0"))
	if err != nil || !bal.Equal(d("100")) {
		t.Fatalf("withdraw bal=%s err=%v", bal, err)
	}

	// 5️⃣ 撤銷提款
	u, err := r.Undo(1)
	if err != nil {
		t.Fatal(err)
	}
	if u.Kind != ledger.Withdraw || !u.Amount.Equal(d("50")) || !u.Balance.Equal(d("150")) {
		t.Fatalf("undo=%+v", u)
	}
	h = history(t, r, 1)
	if len(h) != 2 || h[0].Kind != ledger.Deposit {
		t.Fatalf("history=%+v", h)
	}

	// 6️⃣ 撤銷存款，再撤銷 → 只剩 Initial
	if _, err := r.Undo(1); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Undo(1); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("want ErrNothingToUndo, got %v", err)
	}
	if got := find(t, r, 1).Balance; !got.Equal(d("100")) {
		t.Fatalf("balance=%s want 100", got)
	}
	if n := len(history(t, r, 1)); n != 1 {
		t.Fatalf("history len=%d want 1", n)
	}
	checkConsistent(t, r, 1)
}

// TestCreateAccountErrors 驗證帳號重複與負開戶金額皆被拒絕，且不留狀態。
func TestCreateAccountErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.CreateAccount(7, "A", d("10")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.CreateAccount(7, "B", d("99")); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}
	if a := find(t, r, 7); a.Name != "A" || !a.Balance.Equal(d("10")) {
		t.Fatalf("original account changed: %+v", a)
	}
	if _, err := r.CreateAccount(8, "C", d("-1")); !errors.Is(err, ErrBadAmount) {
		t.Fatalf("want ErrBadAmount, got %v", err)
	}
	if _, err := r.Find(8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	// 開戶金額 0 合法
	if _, err := r.CreateAccount(9, "Zero", decimal.Zero); err != nil {
		t.Fatal(err)
	}
}

// TestAmountValidation 驗證存提款金額必須 > 0，且錯誤時餘額與帳本不變。
func TestAmountValidation(t *testing.T) {
	r := NewRegistry()
	_, _ = r.CreateAccount(1, "A", d("100"))

	for _, amt := range []string{"0", "-5"} {
		if _, err := r.Deposit(1, d(amt)); !errors.Is(err, ErrBadAmount) {
			t.Fatalf("deposit %s: want ErrBadAmount, got %v", amt, err)
		}
		if _, err := r.Withdraw(1, d(amt)); !errors.Is(err, ErrBadAmount) {
			t.Fatalf("withdraw %s: want ErrBadAmount, got %v", amt, err)
		}
	}
	if n := len(history(t, r, 1)); n != 1 {
		t.Fatalf("history len=%d want 1", n)
	}

	// 提領全部餘額可行，餘額歸零
	if bal, err := r.Withdraw(1, d("100")); err != nil || !bal.IsZero() {
		t.Fatalf("bal=%s err=%v", bal, err)
	}
}

// TestNotFound 驗證對不存在帳號的每個操作都回傳 ErrNotFound。
func TestNotFound(t *testing.T) {
	r := NewRegistry()
	checks := map[string]error{}
	_, checks["find"] = r.Find(42)
	_, checks["deposit"] = r.Deposit(42, d("1"))
	_, checks["withdraw"] = r.Withdraw(42, d("1"))
	_, checks["undo"] = r.Undo(42)
	_, checks["history"] = r.GetHistory(42)
	checks["delete"] = r.Delete(42)
	for op, err := range checks {
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: want ErrNotFound, got %v", op, err)
		}
		if !strings.Contains(err.Error(), "account 42") {
			t.Fatalf("%s: error should mention account id: %v", op, err)
		}
	}
}

// TestDeleteIsTotal 驗證刪除後 Find 與 GetHistory 皆回傳 ErrNotFound，
// 且同帳號可重新開戶、帳本從頭開始。
func TestDeleteIsTotal(t *testing.T) {
	r := NewRegistry()
	_, _ = r.CreateAccount(3, "C", d("30"))
	_, _ = r.Deposit(3, d("5"))

	if err := r.Delete(3); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Find(3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find after delete: %v", err)
	}
	if _, err := r.GetHistory(3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("history after delete: %v", err)
	}
	if err := r.Delete(3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}

	if _, err := r.CreateAccount(3, "C2", d("1")); err != nil {
		t.Fatal(err)
	}
	if n := len(history(t, r, 3)); n != 1 {
		t.Fatalf("recreated history len=%d want 1", n)
	}
}

// TestListAccounts 驗證列出順序（最近建立在前）與重複呼叫結果一致。
func TestListAccounts(t *testing.T) {
	r := NewRegistry()
	if got := slices.Collect(r.ListAccounts()); len(got) != 0 {
		t.Fatalf("empty registry listed %d", len(got))
	}
	_, _ = r.CreateAccount(10, "A", d("1"))
	_, _ = r.CreateAccount(5, "B", d("2"))
	_, _ = r.CreateAccount(20, "C", d("3"))
	_ = r.Delete(5)

	seq := r.ListAccounts()
	first := slices.Collect(seq)
	if len(first) != 2 || first[0].ID != 20 || first[1].ID != 10 {
		t.Fatalf("list=%+v", first)
	}
	// 同一序列可重複迭代
	if again := slices.Collect(seq); !slices.Equal(ids(first), ids(again)) {
		t.Fatalf("re-iteration differs: %+v vs %+v", first, again)
	}
	// 無變動時兩次呼叫結果一致
	second := slices.Collect(r.ListAccounts())
	if len(second) != len(first) {
		t.Fatalf("len %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Name != second[i].Name || !first[i].Balance.Equal(second[i].Balance) {
			t.Fatalf("listing not idempotent at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func ids(in []AccountSummary) []int64 {
	out := make([]int64, len(in))
	for i, a := range in {
		out[i] = a.ID
	}
	return out
}

// TestUndoInvertsLastOp 對存款與提款各做一次「操作後立即撤銷」，
// 餘額須回到操作前、帳本恰好少一筆。
func TestUndoInvertsLastOp(t *testing.T) {
	r := NewRegistry()
	_, _ = r.CreateAccount(1, "A", d("80.55"))
	_, _ = r.Deposit(1, d("19.45"))

	ops := map[string]func() (decimal.Decimal, error){
		"deposit":  func() (decimal.Decimal, error) { return r.Deposit(1, d("12.34")) },
		"withdraw": func() (decimal.Decimal, error) { return r.Withdraw(1, d("99.99")) },
	}
	for name, op := range ops {
		before := find(t, r, 1).Balance
		n := len(history(t, r, 1))
		if _, err := op(); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if _, err := r.Undo(1); err != nil {
			t.Fatalf("%s undo: %v", name, err)
		}
		if after := find(t, r, 1).Balance; !after.Equal(before) {
			t.Fatalf("%s: balance %s want %s", name, after, before)
		}
		if m := len(history(t, r, 1)); m != n {
			t.Fatalf("%s: history len %d want %d", name, m, n)
		}
	}
}

// TestRandomOpsKeepBalanceConsistent 以固定種子產生隨機操作序列，
// 每一步後檢查 餘額 == 帳本重放 且餘額永不為負。
func TestRandomOpsKeepBalanceConsistent(t *testing.T) {
	r := NewRegistry()
	_, _ = r.CreateAccount(1, "A", d("50"))
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 2000; i++ {
		amt := decimal.New(rng.Int64N(10000)+1, -2)
		switch rng.IntN(3) {
		case 0:
			_, _ = r.Deposit(1, amt)
		case 1:
			before := find(t, r, 1).Balance
			if _, err := r.Withdraw(1, amt); errors.Is(err, ErrInsufficient) {
				if after := find(t, r, 1).Balance; !after.Equal(before) {
					t.Fatalf("step %d: overdraft changed balance %s -> %s", i, before, after)
				}
			}
		case 2:
			_, _ = r.Undo(1)
		}
		checkConsistent(t, r, 1)
		if find(t, r, 1).Balance.IsNegative() {
			t.Fatalf("step %d: negative balance", i)
		}
	}
}

// TestConcurrentDepositsRaceSafety 驗證多執行緒同時存款仍具資料一致性。
func TestConcurrentDepositsRaceSafety(t *testing.T) {
	r := NewRegistry()
	_, _ = r.CreateAccount(1, "A", decimal.Zero)

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := r.Deposit(1, d("1")); err != nil {
				t.Errorf("deposit err: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := find(t, r, 1).Balance; !got.Equal(decimal.NewFromInt(workers)) {
		t.Fatalf("balance=%s want=%d", got, workers)
	}
	checkConsistent(t, r, 1)
}

// TestConcurrentMixedOps 並行混合存款、提款、撤銷、建立與刪除其他帳戶，
// 最終帳戶餘額仍與帳本一致且非負。
func TestConcurrentMixedOps(t *testing.T) {
	r := NewRegistry()
	_, _ = r.CreateAccount(1, "A", d("100"))

	const n = 200
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, _ = r.Deposit(1, d("2"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, _ = r.Withdraw(1, d("3"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, _ = r.Undo(1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := int64(0); i < n; i++ {
			_, _ = r.CreateAccount(1000+i, "tmp", d("1"))
			_ = slices.Collect(r.ListAccounts())
			_ = r.Delete(1000 + i)
		}
	}()
	wg.Wait()

	checkConsistent(t, r, 1)
	if find(t, r, 1).Balance.IsNegative() {
		t.Fatal("negative balance")
	}
	if got := len(slices.Collect(r.ListAccounts())); got != 1 {
		t.Fatalf("accounts=%d want 1", got)
	}
}

// TestLoggerRecordsMutations 驗證已提交的變動會寫入 logger。
func TestLoggerRecordsMutations(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	_, _ = r.CreateAccount(1, "A", d("10"))
	_, _ = r.Deposit(1, d("5"))
	_, _ = r.Withdraw(1, d("500"))

	out := buf.String()
	if !strings.Contains(out, `"message":"account created"`) || !strings.Contains(out, `"kind":"Deposit"`) {
		t.Fatalf("log output missing entries: %s", out)
	}
	if strings.Count(out, "transaction committed") != 1 {
		t.Fatalf("failed withdraw must not be logged as committed: %s", out)
	}
}

// TestStaleAccountAfterDelete 模擬操作已查到帳戶指標、尚未取得帳戶鎖時帳戶被刪除：
// 之後取得鎖的操作必須回傳 ErrNotFound，且不得碰到已釋放的帳本。
func TestStaleAccountAfterDelete(t *testing.T) {
	r := NewRegistry()
	_, _ = r.CreateAccount(1, "A", d("10"))

	r.mu.RLock()
	stale := r.accts[1]
	r.mu.RUnlock()

	// 持有帳戶鎖時 Delete 必須等待
	stale.mu.Lock()
	done := make(chan error, 1)
	go func() { done <- r.Delete(1) }()
	select {
	case err := <-done:
		t.Fatalf("Delete returned while account lock held: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	stale.mu.Unlock()
	if err := <-done; err != nil {
		t.Fatalf("Delete err=%v", err)
	}

	err := stale.do(func(a *account) error {
		t.Fatal("fn must not run on a deleted account")
		return nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale op: want ErrNotFound, got %v", err)
	}
	if stale.ledger != nil || !stale.closed {
		t.Fatalf("deleted account not released: closed=%v", stale.closed)
	}
}

// TestConcurrentOpsOnDeletedAccount 在同一帳號上並行存款、撤銷、查紀錄與刪除，
// 每個操作只能在刪除前成功，或回傳 ErrNotFound（撤銷另可能為 ErrNothingToUndo）。
func TestConcurrentOpsOnDeletedAccount(t *testing.T) {
	r := NewRegistry()
	for round := 0; round < 200; round++ {
		if _, err := r.CreateAccount(1, "A", d("10")); err != nil {
			t.Fatalf("round %d create: %v", round, err)
		}

		var wg sync.WaitGroup
		errs := make(chan error, 4)
		wg.Add(4)
		go func() {
			defer wg.Done()
			_, err := r.Deposit(1, d("1"))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := r.Undo(1)
			if errors.Is(err, ErrNothingToUndo) {
				err = nil
			}
			errs <- err
		}()
		go func() {
			defer wg.Done()
			seq, err := r.GetHistory(1)
			if err == nil && len(slices.Collect(seq)) == 0 {
				err = errors.New("empty history for live account")
			}
			errs <- err
		}()
		go func() {
			defer wg.Done()
			errs <- r.Delete(1)
		}()
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil && !errors.Is(err, ErrNotFound) {
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		if _, err := r.Find(1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("round %d: account still present: %v", round, err)
		}
	}
}
