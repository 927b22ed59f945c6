package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/coa/internal/config"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/standards"
)

func newStandardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standards",
		Short: "Browse the accounting standards catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the known standards",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := projectCatalog(cmd)
				if err != nil {
					return err
				}
				return listStandards(cmd.OutOrStdout(), cat.All())
			},
		},
		&cobra.Command{
			Use:   "show <code>",
			Short: "Show one standard",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := projectCatalog(cmd)
				if err != nil {
					return err
				}
				std, err := cat.Get(strings.ToUpper(args[0]))
				if err != nil {
					return err
				}
				showStandard(cmd.OutOrStdout(), std)
				return nil
			},
		},
		&cobra.Command{
			Use:   "recommend <country>",
			Short: "Show the standard recommended for a country, then the other applicable ones",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := projectCatalog(cmd)
				if err != nil {
					return err
				}
				rec, err := cat.Recommended(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recommended: %s (%s)\n", rec.Code, rec.Name)
				for _, s := range cat.ForCountry(args[0]) {
					if s.Code != rec.Code {
						fmt.Fprintf(out, "Also applicable: %s (%s)\n", s.Code, s.Name)
					}
				}
				return nil
			},
		},
	)
	return cmd
}

// projectCatalog returns the project's catalog when run inside a project,
// the embedded one otherwise.
func projectCatalog(cmd *cobra.Command) (*standards.Catalog, error) {
	root, err := projectRoot(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return standards.Default()
	}
	if err != nil {
		return nil, err
	}
	return loadCatalog(root, cfg)
}

func listStandards(out io.Writer, stds []standards.Standard) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tFRAMEWORK\tCOUNTRIES")
	for _, s := range stds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Code, s.Name, s.Framework, len(s.ApplicableCountries))
	}
	return tw.Flush()
}

func showStandard(out io.Writer, s standards.Standard) {
	fmt.Fprintf(out, "%s  %s\n", s.Code, s.Name)
	if s.LocalName != "" {
		fmt.Fprintf(out, "Local name:   %s\n", s.LocalName)
	}
	fmt.Fprintf(out, "Version:      %s (effective %s)\n", s.Version, s.EffectiveDate)
	fmt.Fprintf(out, "Framework:    %s\n", s.Framework)
	fmt.Fprintf(out, "Countries:    %s\n", strings.Join(s.ApplicableCountries, ", "))
	fmt.Fprintf(out, "Accounts:     %d declared, required: %s\n",
		len(s.ChartOfAccounts.Accounts), strings.Join(s.ChartOfAccounts.Validation.RequiredAccounts, ", "))

	notes := s.FinancialStatements.Notes
	fmt.Fprintf(out, "Notes:        %d minimum (%d under %s)\n",
		notes.MinimumFor(model.SystemNormal), notes.MinimumFor(model.SystemMinimal), model.SystemMinimal)

	fa := s.SpecificRules.FunctionalAllocation
	if fa.Required {
		fmt.Fprintf(out, "Allocation:   mission >= %d%%, administration >= %d%%, fundraising >= %d%%\n",
			fa.Minimums.Mission, fa.Minimums.Administration, fa.Minimums.Fundraising)
	}
}
