package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/usecase"
)

var (
	hashStyle     = color.New(color.FgWhite)
	pendingStyle  = color.New(color.FgYellow)
	readyStyle    = color.New(color.FgGreen)
	terminalStyle = color.New(color.Faint)
	failedStyle   = color.New(color.FgRed)
	labelStyle    = color.New(color.Bold)
)

// TransactionRenderer renders pending transactions for the terminal or as
// JSON in non-interactive pipelines.
type TransactionRenderer struct {
	out    io.Writer
	asJSON bool
}

// NewTransactionRenderer creates a transaction renderer.
func NewTransactionRenderer(out io.Writer, asJSON bool) *TransactionRenderer {
	return &TransactionRenderer{out: out, asJSON: asJSON}
}

// RenderProposed prints the freshly queued transaction and what to do next.
func (r *TransactionRenderer) RenderProposed(tx *models.PendingTransaction, account *models.Account) error {
	if r.asJSON {
		return r.renderJSON(tx)
	}
	fmt.Fprintf(r.out, "Proposed transaction %s (nonce %d)\n", hashStyle.Sprint(tx.SafeTxHash), tx.Descriptor.Nonce)
	r.renderProgress(tx, account)
	fmt.Fprintf(r.out, "Next: covault sign %s\n", tx.SafeTxHash)
	return nil
}

// RenderSigned prints the signature progress after a merge or signature.
func (r *TransactionRenderer) RenderSigned(tx *models.PendingTransaction, account *models.Account) error {
	if r.asJSON {
		return r.renderJSON(tx)
	}
	r.renderProgress(tx, account)
	if usecase.Ready(tx, account) && !tx.Status.IsTerminal() {
		fmt.Fprintf(r.out, "%s covault exec %s\n", readyStyle.Sprint("Ready to execute:"), tx.SafeTxHash)
	}
	return nil
}

// RenderExecuted prints the terminal outcome of an execution attempt.
func (r *TransactionRenderer) RenderExecuted(tx *models.PendingTransaction) error {
	if r.asJSON {
		return r.renderJSON(tx)
	}
	style := statusStyle(tx.Status)
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Status:"), style.Sprint(string(tx.Status)))
	if tx.ExecutionTxHash != "" {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Execution tx:"), tx.ExecutionTxHash)
	}
	if tx.FailureReason != "" {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Reason:"), failedStyle.Sprint(tx.FailureReason))
	}
	return nil
}

// RenderList prints the account's transactions as a table.
func (r *TransactionRenderer) RenderList(txs []*models.PendingTransaction, account *models.Account) error {
	if r.asJSON {
		return r.renderJSON(txs)
	}
	if len(txs) == 0 {
		fmt.Fprintln(r.out, "No transactions")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NONCE", "HASH", "TO", "STATUS", "SIGS"})
	for _, tx := range txs {
		t.AppendRow(table.Row{
			tx.Descriptor.Nonce,
			shorten(tx.SafeTxHash),
			shorten(tx.Descriptor.To),
			statusStyle(tx.Status).Sprint(string(tx.Status)),
			fmt.Sprintf("%d/%d", len(tx.Signatures), account.Threshold),
		})
	}
	t.Render()
	return nil
}

// RenderDetail prints one transaction with its execution summary.
func (r *TransactionRenderer) RenderDetail(tx *models.PendingTransaction, account *models.Account) error {
	if r.asJSON {
		return r.renderJSON(tx)
	}

	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Hash:"), tx.SafeTxHash)
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Account:"), tx.SafeAddress)
	fmt.Fprintf(r.out, "%s %d\n", labelStyle.Sprint("Chain:"), tx.ChainID)
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Status:"), statusStyle(tx.Status).Sprint(string(tx.Status)))
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("To:"), tx.Descriptor.To)
	fmt.Fprintf(r.out, "%s %s wei\n", labelStyle.Sprint("Value:"), tx.Descriptor.Value)
	if tx.Descriptor.Data != "0x" && tx.Descriptor.Data != "" {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Data:"), shorten(tx.Descriptor.Data))
	}
	if tx.Descriptor.Operation == models.OperationDelegateCall {
		fmt.Fprintf(r.out, "%s delegatecall (batch)\n", labelStyle.Sprint("Operation:"))
	}
	if tx.ExecutionTxHash != "" {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Execution tx:"), tx.ExecutionTxHash)
	}
	if tx.FailureReason != "" {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Reason:"), failedStyle.Sprint(tx.FailureReason))
	}

	r.renderExecutionInfo(usecase.ExecutionInfoOf(tx, account))
	return nil
}

// renderExecutionInfo prints the execution path summary. The variant switch
// is exhaustive over the closed interface.
func (r *TransactionRenderer) renderExecutionInfo(info domain.ExecutionInfo) {
	switch v := info.(type) {
	case domain.MultisigExecutionInfo:
		fmt.Fprintf(r.out, "%s %d of %d confirmations (nonce %d)\n",
			labelStyle.Sprint("Confirmations:"), v.ConfirmationsPresent, v.ConfirmationsRequired, v.Nonce)
		if len(v.MissingSigners) > 0 {
			fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Awaiting:"),
				pendingStyle.Sprint(strings.Join(v.MissingSigners, ", ")))
		}
	case domain.ModuleExecutionInfo:
		fmt.Fprintf(r.out, "%s module %s (no confirmations required)\n",
			labelStyle.Sprint("Execution:"), v.ModuleAddress)
	}
}

func (r *TransactionRenderer) renderProgress(tx *models.PendingTransaction, account *models.Account) {
	style := pendingStyle
	if usecase.Ready(tx, account) {
		style = readyStyle
	}
	fmt.Fprintf(r.out, "Signatures: %s\n", style.Sprintf("%d/%d", len(tx.Signatures), account.Threshold))
	if missing := usecase.MissingSigners(tx, account); len(missing) > 0 {
		fmt.Fprintf(r.out, "Awaiting: %s\n", strings.Join(missing, ", "))
	}
}

func (r *TransactionRenderer) renderJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusStyle(status models.TransactionStatus) *color.Color {
	switch status {
	case models.StatusReady:
		return readyStyle
	case models.StatusSuccess:
		return readyStyle
	case models.StatusFailed, models.StatusReverted, models.StatusCancelled:
		return failedStyle
	case models.StatusAwaitingSignature, models.StatusSubmitting, models.StatusSubmitted:
		return pendingStyle
	default:
		return terminalStyle
	}
}

func shorten(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:10] + "…" + s[len(s)-6:]
}
