package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/covault-org/covault-cli/internal/domain/models"
)

// AccountRenderer renders accounts and deployment records.
type AccountRenderer struct {
	out    io.Writer
	asJSON bool
}

// NewAccountRenderer creates an account renderer.
func NewAccountRenderer(out io.Writer, asJSON bool) *AccountRenderer {
	return &AccountRenderer{out: out, asJSON: asJSON}
}

// RenderAccount prints one account.
func (r *AccountRenderer) RenderAccount(account *models.Account) error {
	if r.asJSON {
		return r.renderJSON(account)
	}
	fmt.Fprintf(r.out, "%s %s (chain %d)\n", labelStyle.Sprint("Account:"), account.Address, account.ChainID)
	fmt.Fprintf(r.out, "%s %d of %d\n", labelStyle.Sprint("Threshold:"), account.Threshold, len(account.Owners))
	for _, owner := range account.Owners {
		fmt.Fprintf(r.out, "  owner %s\n", owner)
	}
	if account.Version != "" {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Version:"), account.Version)
	}
	return nil
}

// RenderAccounts prints the stored accounts as a table.
func (r *AccountRenderer) RenderAccounts(accounts []*models.Account) error {
	if r.asJSON {
		return r.renderJSON(accounts)
	}
	if len(accounts) == 0 {
		fmt.Fprintln(r.out, "No accounts stored")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"CHAIN", "ADDRESS", "THRESHOLD", "OWNERS", "VERSION"})
	for _, account := range accounts {
		t.AppendRow(table.Row{
			account.ChainID,
			account.Address,
			account.Threshold,
			len(account.Owners),
			account.Version,
		})
	}
	t.Render()
	return nil
}

// RenderDeployment prints a deployment record and, once indexed, its account.
func (r *AccountRenderer) RenderDeployment(record *models.DeploymentRecord, account *models.Account) error {
	if r.asJSON {
		return r.renderJSON(struct {
			Record  *models.DeploymentRecord `json:"record"`
			Account *models.Account          `json:"account,omitempty"`
		}{record, account})
	}

	style := pendingStyle
	switch record.Status {
	case models.DeploymentIndexed:
		style = readyStyle
	case models.DeploymentWalletRejected, models.DeploymentReverted, models.DeploymentError, models.DeploymentIndexFailed:
		style = failedStyle
	}
	fmt.Fprintf(r.out, "%s %s (%s)\n", labelStyle.Sprint("Deployment:"), record.ID, style.Sprint(string(record.Status)))
	if record.TxHash != "" {
		fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Creation tx:"), record.TxHash)
	}
	if record.Status == models.DeploymentTimeout {
		fmt.Fprintf(r.out, "Resume later with: covault account deploy --resume %s\n", record.ID)
	}
	if account != nil {
		return r.RenderAccount(account)
	}
	return nil
}

func (r *AccountRenderer) renderJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
