package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/coa/internal/accounts"
	"github.com/cleared-dev/coa/internal/importer"
	"github.com/cleared-dev/coa/internal/journal"
	"github.com/cleared-dev/coa/internal/model"
)

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect the chart of accounts",
	}

	var balances bool
	var asOf string
	tree := &cobra.Command{
		Use:   "tree",
		Short: "Print the account hierarchy",
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
			if err := reg.ValidateForReporting(); err != nil {
				return err
			}

			if balances {
				reg, err = p.appliedRegistry(reg, asOf)
				if err != nil {
					return err
				}
			}

			nodes, err := reg.Tree()
			if err != nil {
				return err
			}
			cur, err := p.currency()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, fa := range accounts.Flatten(nodes, 0) {
				a := fa.Account
				line := fmt.Sprintf("%s%s  %s  [%s]", strings.Repeat("  ", fa.Level), a.Code, a.Name, a.Type)
				if balances && !a.IsGroup {
					line += "  " + cur.Format(cur.Round(accounts.BalanceOf(a).Net))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	tree.Flags().BoolVar(&balances, "balances", false, "show closing balances from the journal")
	tree.Flags().StringVar(&asOf, "as-of", "", "balance date, YYYY-MM-DD (default: end of the fiscal period)")

	cmd.AddCommand(tree, newAccountsImportCommand())
	return cmd
}

func newAccountsImportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Load opening balances from a trial balance",
		Long: "Load opening balances from a trial balance file. Without a file, every CSV in\n" +
			"import/ is loaded in name order and moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown trial balance format %q", format)
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			var files []importer.FileInfo
			if len(args) > 0 {
				files = []importer.FileInfo{{Name: filepath.Base(args[0]), Path: args[0]}}
			} else if files, err = importer.Scan(p.root); err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("nothing to import")
			}

			reg, err := p.registry()
			if err != nil {
				return err
			}
			accts := reg.All()
			for _, f := range files {
				rows, err := readTrialBalance(parser, f.Path)
				if err != nil {
					return err
				}
				if accts, err = importer.ApplyOpenings(accts, rows); err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
				p.logger.Info("trial balance imported", zap.String("file", f.Name), zap.Int("accounts", len(rows)))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d accounts\n", f.Name, len(rows))
			}

			if err := accounts.NewRegistry(accts).Save(p.root); err != nil {
				return err
			}
			if len(args) == 0 {
				for _, f := range files {
					if err := importer.MarkProcessed(p.root, f.Name); err != nil {
						return err
					}
				}
			}
			return p.commit("accounts: import opening balances")
		},
	}
	cmd.Flags().StringVar(&format, "format", "balance", "file format: balance or semicolon")
	return cmd
}

func readTrialBalance(parser importer.Parser, path string) ([]model.TrialBalanceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trial balance: %w", err)
	}
	defer f.Close()
	return parser.Parse(f)
}

// appliedRegistry returns the chart with the journal's posted entries of the
// fiscal period applied up to asOf.
func (p *project) appliedRegistry(reg *accounts.Registry, asOf string) (*accounts.Registry, error) {
	at, err := parseDate(asOf)
	if err != nil {
		return nil, err
	}
	period, err := fiscalPeriod(p.cfg)
	if err != nil {
		return nil, err
	}
	if !at.IsZero() {
		period.End = at
	}
	svc, err := p.journal(reg)
	if err != nil {
		return nil, err
	}
	entries, err := svc.ReadAll()
	if err != nil {
		return nil, err
	}
	applied, err := journal.Apply(reg.All(), entries, period)
	if err != nil {
		return nil, err
	}
	return accounts.NewRegistry(applied), nil
}
