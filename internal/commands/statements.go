package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/coa/internal/auditlog"
	"github.com/cleared-dev/coa/internal/export"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/statement"
	"github.com/cleared-dev/coa/internal/store"
	"github.com/cleared-dev/coa/internal/validation"
)

func newValidateCommand() *cobra.Command {
	var checkOnly, all bool

	cmd := &cobra.Command{
		Use:   "validate [statement-id]...",
		Short: "Validate statements and approve the ones without errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass statement IDs or --all")
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			var stmts []*statement.GeneratedStatement
			if all {
				stmts, err = p.store.List(cmd.Context(), store.Filter{
					EntityID: p.cfg.Entity.ID,
					Period:   p.cfg.Fiscal.Period,
					Status:   model.StatementDraft,
				})
				if err != nil {
					return err
				}
			} else {
				for _, id := range args {
					s, err := p.store.Get(cmd.Context(), id)
					if err != nil {
						return err
					}
					stmts = append(stmts, s)
				}
			}

			rep, err := p.validateStatements(stmts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			v := p.validator()
			now := time.Now().UTC()
			for i, res := range rep.Results {
				s := stmts[i]
				printResult(out, s, res)
				if err := p.audit(auditlog.ActionValidated, s, resultSummary(res)); err != nil {
					return err
				}
				if checkOnly || !res.Valide || s.Status != model.StatementDraft {
					continue
				}
				std, err := p.catalog.Get(s.Scope.Standard)
				if err != nil {
					return err
				}
				if _, err := v.Approve(s, std, now); err != nil {
					return err
				}
				if err := p.store.Save(cmd.Context(), s); err != nil {
					return err
				}
				if err := p.audit(auditlog.ActionApproved, s, ""); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "%d statement(s): %d valid, %d invalid\n", rep.Total, rep.Valid, rep.Invalid)
			if rep.Invalid > 0 {
				return fmt.Errorf("%w: %d statement(s)", validation.ErrValidationFailed, rep.Invalid)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check-only", false, "report findings without approving")
	cmd.Flags().BoolVar(&all, "all", false, "validate every draft of the configured period")
	return cmd
}

// validateStatements validates statements against the standard each was
// generated under. Results follow the input order.
func (p *project) validateStatements(stmts []*statement.GeneratedStatement) (validation.Report, error) {
	v := p.validator()
	rep := validation.Report{Total: len(stmts), Results: make([]validation.Result, len(stmts))}

	byStandard := make(map[string][]int)
	var order []string
	for i, s := range stmts {
		code := s.Scope.Standard
		if _, ok := byStandard[code]; !ok {
			order = append(order, code)
		}
		byStandard[code] = append(byStandard[code], i)
	}
	for _, code := range order {
		std, err := p.catalog.Get(code)
		if err != nil {
			return validation.Report{}, err
		}
		idx := byStandard[code]
		group := make([]*statement.GeneratedStatement, len(idx))
		for j, i := range idx {
			group[j] = stmts[i]
		}
		sub := v.ValidateAll(group, std)
		rep.Valid += sub.Valid
		rep.Invalid += sub.Invalid
		for j, i := range idx {
			rep.Results[i] = sub.Results[j]
		}
	}
	return rep, nil
}

func printResult(out io.Writer, s *statement.GeneratedStatement, res validation.Result) {
	verdict := "valid"
	if !res.Valide {
		verdict = "invalid"
	}
	fmt.Fprintf(out, "%s %s: %s\n", s.ID, s.Type(), verdict)
	for _, is := range res.Erreurs {
		fmt.Fprintf(out, "  error   %s\n", is.Error())
	}
	for _, is := range res.Avertissements {
		fmt.Fprintf(out, "  warning %s\n", is.Error())
	}
}

func resultSummary(res validation.Result) string {
	return fmt.Sprintf("%d error(s), %d warning(s)", len(res.Erreurs), len(res.Avertissements))
}

func newCloseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close <statement-id>...",
		Short: "Close validated statements; closed statements never change again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			now := time.Now().UTC()
			for _, id := range args {
				s, err := p.store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := s.Close(now); err != nil {
					return err
				}
				if err := p.store.Save(cmd.Context(), s); err != nil {
					return err
				}
				if err := p.audit(auditlog.ActionClosed, s, ""); err != nil {
					return err
				}
				if err := p.commit(fmt.Sprintf("close: %s %s (%s)", s.Type(), s.Period, s.ID)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", s.ID, s.Status)
			}
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <statement-id>",
		Short: "Export a statement as CSV, XLSX or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			s, err := p.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = filepath.Join(p.root, p.cfg.Storage.Exports, export.FileName(s, f))
			}
			if err := writeExport(path, s, f); err != nil {
				return err
			}
			if err := p.audit(auditlog.ActionExported, s, string(f)); err != nil {
				return err
			}
			if err := p.commit(fmt.Sprintf("export: %s %s as %s", s.Type(), s.Period, f)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(export.FormatXLSX), "csv, xlsx or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: exports/<entity>_<period>_<type>_<id>.<ext>)")
	return cmd
}

func writeExport(path string, s *statement.GeneratedStatement, f export.Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.Write(file, s, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func newStatementsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Browse the statement archive",
	}

	var period, typ, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.Filter{Period: period}
			var err error
			if typ != "" {
				if f.Type, err = model.ParseStatementType(typ); err != nil {
					return err
				}
			}
			if status != "" {
				if f.Status, err = model.ParseStatementStatus(status); err != nil {
					return err
				}
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			stmts, err := p.store.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printStatements(cmd.OutOrStdout(), stmts)
		},
	}
	list.Flags().StringVar(&period, "period", "", "fiscal period")
	list.Flags().StringVar(&typ, "type", "", "statement type")
	list.Flags().StringVar(&status, "status", "", "DRAFT, VALIDE or CLOTURE")

	history := &cobra.Command{
		Use:   "history <statement-id>",
		Short: "Show the status transitions and audit trail of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			transitions, err := p.store.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			trail, err := auditlog.ForStatement(p.root, args[0])
			if err != nil {
				return err
			}
			if len(transitions) == 0 && len(trail) == 0 {
				return fmt.Errorf("%w: %s", store.ErrStatementNotFound, args[0])
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range transitions {
				from := string(t.From)
				if from == "" {
					from = "-"
				}
				fmt.Fprintf(tw, "%s\tstatus\t%s -> %s\n", t.At.Format(time.RFC3339), from, t.To)
			}
			for _, e := range trail {
				fmt.Fprintf(tw, "%s\t%s\t%s by %s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Action, e.Status, e.Actor, e.Details)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(list, history)
	return cmd
}
