package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/coa/internal/journal"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/validation"
)

func newEntriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Manage journal entries",
	}
	cmd.AddCommand(newEntriesAddCommand(), newEntriesPostCommand(), newEntriesCheckCommand())
	return cmd
}

func newEntriesAddCommand() *cobra.Command {
	var params journal.AddDoubleParams
	var date, amount, status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a two-line journal entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if params.Date, err = parseDate(date); err != nil {
				return err
			}
			if params.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			if !params.Amount.IsPositive() {
				return fmt.Errorf("amount must be positive, got %s", amount)
			}
			if status != "" {
				if params.Status, err = model.ParseEntryStatus(status); err != nil {
					return err
				}
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := p.entryService()
			if err != nil {
				return err
			}
			entryID, err := svc.AddDouble(params)
			if err != nil {
				return err
			}
			if err := p.commit("journal: add " + entryID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), entryID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")
	cmd.Flags().StringVar(&params.DebitAccount, "debit", "", "account debited (required)")
	_ = cmd.MarkFlagRequired("debit")
	cmd.Flags().StringVar(&params.CreditAccount, "credit", "", "account credited (required)")
	_ = cmd.MarkFlagRequired("credit")
	cmd.Flags().StringVar(&amount, "amount", "", "amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&params.Description, "description", "", "entry description")
	cmd.Flags().StringVar(&params.Reference, "reference", "", "external reference")
	cmd.Flags().StringVar(&status, "status", "", "entry status (default DRAFT)")

	return cmd
}

func newEntriesPostCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "post <entry-id>...",
		Short: "Move entries to POSTED (or another status with --status)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := model.ParseEntryStatus(status)
			if err != nil {
				return err
			}
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := p.entryService()
			if err != nil {
				return err
			}
			for _, entryID := range args {
				if err := svc.SetStatus(entryID, st); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", entryID, st)
			}
			return p.commit(fmt.Sprintf("journal: %s %s", strings.ToLower(string(st)), strings.Join(args, " ")))
		},
	}
	cmd.Flags().StringVar(&status, "status", string(model.EntryPosted), "target status")
	return cmd
}

func newEntriesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check every journal entry against the chart and double-entry rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			reg, err := p.registry()
			if err != nil {
				return err
			}
			svc, err := p.journal(reg)
			if err != nil {
				return err
			}
			entries, err := svc.ReadAll()
			if err != nil {
				return err
			}
			cur, err := p.currency()
			if err != nil {
				return err
			}

			issues := validation.ValidateEntries(entries, reg, cur.Exponent)
			out := cmd.OutOrStdout()
			for _, is := range issues {
				fmt.Fprintln(out, is.Error())
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d issue(s) in %d entries", len(issues), len(entries))
			}
			fmt.Fprintf(out, "%d entries OK\n", len(entries))
			return nil
		},
	}
}

func (p *project) entryService() (*journal.Service, error) {
	reg, err := p.registry()
	if err != nil {
		return nil, err
	}
	return p.journal(reg)
}
