package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/coa/internal/accounts"
	"github.com/cleared-dev/coa/internal/config"
	"github.com/cleared-dev/coa/internal/gitops"
	"github.com/cleared-dev/coa/internal/standards"
)

type initOptions struct {
	name     string
	entityID string
	country  string
	standard string
	system   string
	currency string
	period   string
	git      bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new coa project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "entity name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.country, "country", "", "ISO 3166 alpha-2 country code (required)")
	_ = cmd.MarkFlagRequired("country")
	cmd.Flags().StringVar(&opts.entityID, "id", "", "entity identifier")
	cmd.Flags().StringVar(&opts.standard, "standard", "", "accounting standard (default: recommended for the country)")
	cmd.Flags().StringVar(&opts.system, "system", "NORMAL", "reporting system: NORMAL or MINIMAL")
	cmd.Flags().StringVar(&opts.currency, "currency", "XOF", "reporting currency")
	cmd.Flags().StringVar(&opts.period, "period", strconv.Itoa(time.Now().Year()), "fiscal period")
	cmd.Flags().BoolVar(&opts.git, "git", false, "version the project with git and commit as it changes")

	return cmd
}

func runInit(out io.Writer, dir string, opts initOptions) error {
	cfg := config.Default(opts.name, opts.country)
	cfg.Entity.ID = opts.entityID
	cfg.Fiscal.Period = opts.period
	cfg.Reporting.Standard = strings.ToUpper(opts.standard)
	cfg.Reporting.System = strings.ToUpper(opts.system)
	cfg.Reporting.Currency = strings.ToUpper(opts.currency)
	cfg.Git.AutoCommit = opts.git
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := fiscalPeriod(cfg); err != nil {
		return err
	}

	catalog, err := standards.Default()
	if err != nil {
		return fmt.Errorf("loading standards: %w", err)
	}
	var std standards.Standard
	if cfg.Reporting.Standard == "" {
		std, err = catalog.Recommended(cfg.Entity.Country)
	} else {
		std, err = catalog.Get(cfg.Reporting.Standard)
	}
	if err != nil {
		return err
	}

	for _, d := range []string{"accounts", "journal", "logs", filepath.Join("import", "processed"), cfg.Storage.Exports} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	chart := accounts.NewRegistry(accounts.DefaultChart(std.Code))
	if err := chart.Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := cfg.Storage.Database + "\n" + cfg.Storage.Database + "-*\n" + cfg.Storage.Exports + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	msg := fmt.Sprintf("Initialized coa project at %s (%s, %s)", dir, std.Code, cfg.Reporting.System)
	if opts.git {
		if err := gitops.Init(dir); err != nil {
			return err
		}
		hash, err := gitops.CommitAll(dir, "init: Initialize "+opts.name, gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
		msg += " (" + hash + ")"
	}
	fmt.Fprintln(out, msg)
	return nil
}
