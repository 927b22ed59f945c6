package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/coa/internal/accounts"
	"github.com/cleared-dev/coa/internal/auditlog"
	"github.com/cleared-dev/coa/internal/config"
	"github.com/cleared-dev/coa/internal/gitops"
	"github.com/cleared-dev/coa/internal/journal"
	"github.com/cleared-dev/coa/internal/logging"
	"github.com/cleared-dev/coa/internal/mapping"
	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/standards"
	"github.com/cleared-dev/coa/internal/statement"
	"github.com/cleared-dev/coa/internal/store"
	"github.com/cleared-dev/coa/internal/validation"
)

const dateFormat = "2006-01-02"

// project is an opened coa project: its configuration, the catalog and rule
// book it reports under, and the statement archive.
type project struct {
	root    string
	actor   string
	cfg     *config.Config
	logger  *zap.Logger
	catalog *standards.Catalog
	book    *mapping.Book
	store   *store.Store
}

func openProject(cmd *cobra.Command) (*project, error) {
	root, err := projectRoot(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s is not a coa project (run coa init)", root)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(root, cfg)
	if err != nil {
		return nil, err
	}
	book, err := loadBook(root, cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(root, cfg.Storage.Database))
	if err != nil {
		return nil, err
	}

	actor, _ := cmd.Flags().GetString("actor")
	return &project{
		root:    root,
		actor:   actor,
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		book:    book,
		store:   st,
	}, nil
}

func (p *project) Close() error {
	_ = p.logger.Sync()
	return p.store.Close()
}

func projectRoot(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

func loadCatalog(root string, cfg *config.Config) (*standards.Catalog, error) {
	if cfg.Reporting.CatalogDir == "" {
		return standards.Default()
	}
	cat, err := standards.Load(os.DirFS(filepath.Join(root, cfg.Reporting.CatalogDir)))
	if err != nil {
		return nil, fmt.Errorf("loading standards catalog: %w", err)
	}
	return cat, nil
}

func loadBook(root string, cfg *config.Config) (*mapping.Book, error) {
	if cfg.Reporting.RulesDir == "" {
		return mapping.DefaultBook()
	}
	book, err := mapping.LoadBook(os.DirFS(filepath.Join(root, cfg.Reporting.RulesDir)))
	if err != nil {
		return nil, fmt.Errorf("loading mapping rules: %w", err)
	}
	return book, nil
}

// standard returns the configured standard, or the one recommended for the
// entity's country when none is configured.
func (p *project) standard() (standards.Standard, error) {
	if p.cfg.Reporting.Standard == "" {
		return p.catalog.Recommended(p.cfg.Entity.Country)
	}
	std, err := p.catalog.Get(p.cfg.Reporting.Standard)
	if err != nil {
		return standards.Standard{}, err
	}
	if !std.AppliesTo(p.cfg.Entity.Country) {
		p.logger.Warn("standard not applicable to country",
			zap.String("standard", std.Code),
			zap.String("country", p.cfg.Entity.Country),
		)
	}
	return std, nil
}

func (p *project) currency() (model.CurrencyDef, error) {
	return model.LookupCurrency(p.cfg.Reporting.Currency)
}

func (p *project) registry() (*accounts.Registry, error) {
	return accounts.Load(p.root)
}

func (p *project) journal(reg *accounts.Registry) (*journal.Service, error) {
	cur, err := p.currency()
	if err != nil {
		return nil, err
	}
	return journal.NewService(p.root, reg, cur.Exponent), nil
}

// input assembles the generation snapshot from the chart, the journal and
// the configuration. A zero asOf means the end of the fiscal period.
func (p *project) input(asOf time.Time) (statement.Input, error) {
	std, err := p.standard()
	if err != nil {
		return statement.Input{}, err
	}
	system, err := p.cfg.SystemType()
	if err != nil {
		return statement.Input{}, err
	}
	materiality, err := p.cfg.MaterialityThreshold()
	if err != nil {
		return statement.Input{}, err
	}
	reg, err := p.registry()
	if err != nil {
		return statement.Input{}, err
	}
	svc, err := p.journal(reg)
	if err != nil {
		return statement.Input{}, err
	}
	entries, err := svc.ReadAll()
	if err != nil {
		return statement.Input{}, err
	}
	period, err := fiscalPeriod(p.cfg)
	if err != nil {
		return statement.Input{}, err
	}
	if asOf.IsZero() {
		asOf = period.End
	}

	return statement.Input{
		EntityID:    p.cfg.Entity.ID,
		Period:      p.cfg.Fiscal.Period,
		PeriodStart: period.Start,
		AsOf:        asOf,
		Country:     p.cfg.Entity.Country,
		Standard:    std.Code,
		System:      system,
		Currency:    p.cfg.Reporting.Currency,
		Materiality: materiality,
		Accounts:    reg.All(),
		Entries:     entries,
	}, nil
}

func (p *project) generator() *statement.Generator {
	return statement.NewGenerator(p.catalog, mapping.NewEngine(p.book, p.logger), p.logger)
}

func (p *project) validator() *validation.Validator {
	return validation.New(p.logger)
}

// audit appends one lifecycle action to the project's audit log.
func (p *project) audit(action auditlog.Action, stmt *statement.GeneratedStatement, details string) error {
	return p.auditAll(action, []*statement.GeneratedStatement{stmt}, details)
}

func (p *project) auditAll(action auditlog.Action, stmts []*statement.GeneratedStatement, details string) error {
	now := time.Now().UTC()
	entries := make([]auditlog.Entry, len(stmts))
	for i, s := range stmts {
		entries[i] = auditlog.Entry{
			Timestamp:   now,
			Actor:       p.actor,
			Action:      action,
			StatementID: s.ID,
			Status:      s.Status,
			Details:     details,
		}
	}
	if err := auditlog.Append(p.root, entries); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// commit records the project's current state in git when auto-commit is on.
func (p *project) commit(message string) error {
	if !p.cfg.Git.AutoCommit || !gitops.IsRepo(p.root) {
		return nil
	}
	hash, err := gitops.CommitAll(p.root, message, gitops.Author{Name: p.cfg.Git.AuthorName, Email: p.cfg.Git.AuthorEmail})
	if err != nil {
		return err
	}
	if hash != "" {
		p.logger.Debug("committed", zap.String("hash", hash), zap.String("message", message))
	}
	return nil
}

// fiscalPeriod returns the bounds of the configured fiscal year. The period
// names the calendar year the fiscal year starts in.
func fiscalPeriod(cfg *config.Config) (journal.Period, error) {
	start, err := time.Parse(dateFormat, cfg.Fiscal.Period+"-"+cfg.Fiscal.YearStart)
	if err != nil {
		return journal.Period{}, fmt.Errorf("fiscal period %q with year start %q: %w", cfg.Fiscal.Period, cfg.Fiscal.YearStart, err)
	}
	return journal.Period{Start: start, End: start.AddDate(1, 0, -1)}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
