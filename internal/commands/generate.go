package commands

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/coa/internal/auditlog"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/statement"
)

func newGenerateCommand() *cobra.Command {
	var types []string
	var all bool
	var asOf string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate financial statements from the chart and journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(types) > 0) {
				return errors.New("pass either --type or --all")
			}
			var wanted []model.StatementType
			for _, s := range types {
				t, err := model.ParseStatementType(s)
				if err != nil {
					return err
				}
				wanted = append(wanted, t)
			}
			at, err := parseDate(asOf)
			if err != nil {
				return err
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			in, err := p.input(at)
			if err != nil {
				return err
			}
			stmts, err := p.generator().GenerateAll(cmd.Context(), in, wanted...)
			if err != nil {
				return err
			}
			for _, s := range stmts {
				if err := p.store.Save(cmd.Context(), s); err != nil {
					return err
				}
			}
			if err := p.auditAll(auditlog.ActionGenerated, stmts, "as of "+in.AsOf.Format(dateFormat)); err != nil {
				return err
			}
			return printStatements(cmd.OutOrStdout(), stmts)
		},
	}

	cmd.Flags().StringSliceVar(&types, "type", nil, "statement type to generate (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "generate every statement of the configured system")
	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date, YYYY-MM-DD (default: end of the fiscal period)")

	return cmd
}

func newRegenerateCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "regenerate <statement-id>",
		Short: "Regenerate a draft statement from the current chart and journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseDate(asOf)
			if err != nil {
				return err
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			prev, err := p.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if at.IsZero() {
				at = prev.AsOf
			}
			in, err := p.input(at)
			if err != nil {
				return err
			}
			stmt, err := p.generator().Regenerate(cmd.Context(), prev, in)
			if err != nil {
				return err
			}
			if err := p.store.Save(cmd.Context(), stmt); err != nil {
				return err
			}
			if err := p.audit(auditlog.ActionRegenerated, stmt, "as of "+in.AsOf.Format(dateFormat)); err != nil {
				return err
			}
			return printStatements(cmd.OutOrStdout(), []*statement.GeneratedStatement{stmt})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date, YYYY-MM-DD (default: the previous generation's)")
	return cmd
}

func printStatements(out io.Writer, stmts []*statement.GeneratedStatement) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tPERIOD\tSTATUS\tEQUILIBRE\tWARNINGS")
	for _, s := range stmts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%d\n", s.ID, s.Type(), s.Period, s.Status, s.Equilibre, len(s.Warnings))
	}
	return tw.Flush()
}
