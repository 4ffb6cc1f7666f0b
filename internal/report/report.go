// internal/report/report.go

// Package report 將 Registry 的回傳值排成文字表格，供 console shell 使用。
// 金額一律顯示到小數點後兩位。
package report

import (
	"io"
	"iter"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"bankledger/internal/bank"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// Accounts 輸出 ACC_NO / NAME / BALANCE 表格，回傳列數。
func Accounts(w io.Writer, accounts iter.Seq[bank.AccountSummary]) int {
	table := newTable(w, []string{"Acc No", "Name", "Balance"})
	n := 0
	for a := range accounts {
		table.Append([]string{strconv.FormatInt(a.ID, 10), a.Name, a.Balance.StringFixed(2)})
		n++
	}
	table.Render()
	return n
}

// History 輸出單一帳戶的交易紀錄（由新到舊），回傳列數。
func History(w io.Writer, history iter.Seq[bank.TransactionSummary]) int {
	table := newTable(w, []string{"Kind", "Amount", "Time"})
	n := 0
	for tx := range history {
		table.Append([]string{tx.Kind.String(), tx.Amount.StringFixed(2), FormatTime(tx.Time)})
		n++
	}
	table.Render()
	return n
}

// FormatTime 以報表統一格式輸出時間。
func FormatTime(t time.Time) string { return t.Local().Format(timeLayout) }
