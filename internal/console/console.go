// internal/console/console.go

// Package console 為互動式選單 shell：讀取使用者輸入、呼叫 bank.Registry，
// 再以 report 輸出結果。任何輸入錯誤或領域錯誤都只印出訊息並回到選單。
package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bankledger/internal/bank"
	"bankledger/internal/report"
)

const menu = `
1. Add Account
2. Show All Accounts
3. Deposit
4. Withdraw
5. Show Transactions
6. Undo Last Transaction
7. Delete Account
8. Exit`

// Prompter 讀取一行輸入；*liner.State 即符合此介面。
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// Shell 為選單迴圈。
type Shell struct {
	reg *bank.Registry
	in  Prompter
	out io.Writer
	log zerolog.Logger
}

// New 建立 Shell。
func New(reg *bank.Registry, in Prompter, out io.Writer, log zerolog.Logger) *Shell {
	return &Shell{reg: reg, in: in, out: out, log: log}
}

// errQuit 代表輸入端結束（EOF 或 Ctrl-C）。
var errQuit = errors.New("quit")

// Run 執行選單迴圈直到使用者離開；只有輸入端的非預期錯誤才會回傳。
func (s *Shell) Run() error {
	for {
		fmt.Fprintln(s.out, menu)
		choice, err := s.prompt("Choice: ")
		if err != nil {
			return quitErr(err)
		}

		var opErr error
		switch strings.TrimSpace(choice) {
		case "1":
			opErr = s.addAccount()
		case "2":
			s.showAccounts()
		case "3":
			opErr = s.deposit()
		case "4":
			opErr = s.withdraw()
		case "5":
			opErr = s.showTransactions()
		case "6":
			opErr = s.undo()
		case "7":
			opErr = s.deleteAccount()
		case "8":
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice.")
		}
		if opErr != nil {
			return quitErr(opErr)
		}
	}
}

// quitErr 將輸入端結束轉為 nil，其他錯誤原樣回傳。
func quitErr(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
		return nil
	}
	return err
}

func (s *Shell) prompt(p string) (string, error) {
	line, err := s.in.Prompt(p)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", errQuit
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readID 讀取帳號；格式錯誤回傳 ok=false 並已印出提示。
func (s *Shell) readID() (int64, bool, error) {
	line, err := s.prompt("Account Number: ")
	if err != nil {
		return 0, false, err
	}
	id, perr := strconv.ParseInt(line, 10, 64)
	if perr != nil {
		fmt.Fprintf(s.out, "Invalid account number %q.\n", line)
		return 0, false, nil
	}
	return id, true, nil
}

func (s *Shell) readAmount(p string) (decimal.Decimal, bool, error) {
	line, err := s.prompt(p)
	if err != nil {
		return decimal.Zero, false, err
	}
	amt, perr := decimal.NewFromString(line)
	if perr != nil {
		fmt.Fprintf(s.out, "Invalid amount %q.\n", line)
		return decimal.Zero, false, nil
	}
	return amt, true, nil
}

// reject 印出領域錯誤的使用者訊息。
func (s *Shell) reject(err error) {
	s.log.Debug().Err(err).Msg("operation rejected")
	fmt.Fprintln(s.out, Message(err))
}

// Message 將領域錯誤轉為給使用者看的訊息。
func Message(err error) string {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return "No such account."
	case errors.Is(err, bank.ErrDuplicateID):
		return "Account number already exists."
	case errors.Is(err, bank.ErrBadAmount):
		return "Invalid amount."
	case errors.Is(err, bank.ErrInsufficient):
		return "Insufficient funds."
	case errors.Is(err, bank.ErrNothingToUndo):
		return "Nothing to undo (initial deposit cannot be undone)."
	default:
		return "Error: " + err.Error()
	}
}

func (s *Shell) addAccount() error {
	id, ok, err := s.readID()
	if err != nil || !ok {
		return err
	}
	name, err := s.prompt("Name: ")
	if err != nil {
		return err
	}
	amt, ok, err := s.readAmount("Initial Deposit: ")
	if err != nil || !ok {
		return err
	}
	if _, err := s.reg.CreateAccount(id, name, amt); err != nil {
		s.reject(err)
		return nil
	}
	fmt.Fprintln(s.out, "Account added.")
	return nil
}

func (s *Shell) showAccounts() {
	if report.Accounts(s.out, s.reg.ListAccounts()) == 0 {
		fmt.Fprintln(s.out, "No accounts.")
	}
}

func (s *Shell) deposit() error {
	id, ok, err := s.readID()
	if err != nil || !ok {
		return err
	}
	if _, err := s.reg.Find(id); err != nil {
		s.reject(err)
		return nil
	}
	amt, ok, err := s.readAmount("Deposit Amount: ")
	if err != nil || !ok {
		return err
	}
	bal, err := s.reg.Deposit(id, amt)
	if err != nil {
		s.reject(err)
		return nil
	}
	fmt.Fprintf(s.out, "Deposit successful. New Balance: %s\n", bal.StringFixed(2))
	return nil
}

func (s *Shell) withdraw() error {
	id, ok, err := s.readID()
	if err != nil || !ok {
		return err
	}
	if _, err := s.reg.Find(id); err != nil {
		s.reject(err)
		return nil
	}
	amt, ok, err := s.readAmount("Withdraw Amount: ")
	if err != nil || !ok {
		return err
	}
	bal, err := s.reg.Withdraw(id, amt)
	if err != nil {
		s.reject(err)
		return nil
	}
	fmt.Fprintf(s.out, "Withdrawal successful. New Balance: %s\n", bal.StringFixed(2))
	return nil
}

func (s *Shell) showTransactions() error {
	id, ok, err := s.readID()
	if err != nil || !ok {
		return err
	}
	a, err := s.reg.Find(id)
	if err != nil {
		s.reject(err)
		return nil
	}
	h, err := s.reg.GetHistory(id)
	if err != nil {
		s.reject(err)
		return nil
	}
	fmt.Fprintf(s.out, "Transaction History for %s:\n", a.Name)
	report.History(s.out, h)
	return nil
}

func (s *Shell) undo() error {
	id, ok, err := s.readID()
	if err != nil || !ok {
		return err
	}
	u, err := s.reg.Undo(id)
	if err != nil {
		s.reject(err)
		return nil
	}
	fmt.Fprintf(s.out, "Undone %s of %s. New Balance: %s\n", u.Kind, u.Amount.StringFixed(2), u.Balance.StringFixed(2))
	return nil
}

func (s *Shell) deleteAccount() error {
	id, ok, err := s.readID()
	if err != nil || !ok {
		return err
	}
	a, err := s.reg.Find(id)
	if err != nil {
		s.reject(err)
		return nil
	}
	answer, err := s.prompt(fmt.Sprintf("Delete account %d (%s)? [y/N]: ", a.ID, a.Name))
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}
	if err := s.reg.Delete(id); err != nil {
		s.reject(err)
		return nil
	}
	fmt.Fprintln(s.out, "Account deleted.")
	return nil
}
