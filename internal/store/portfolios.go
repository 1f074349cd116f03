package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jmtruffa/xirr"
)

var (
	// ErrNotFound is returned for an unknown portfolio ID.
	ErrNotFound     = errors.New("portfolio not found")
	ErrNameRequired = errors.New("portfolio name is required")
)

// Portfolio is a named, saved set of cash flows.
type Portfolio struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Guess     float64         `json:"guess"`
	CashFlows []xirr.CashFlow `json:"cash_flows"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PortfolioRepository persists portfolios over database/sql. Queries stick to
// SQL that SQLite and PostgreSQL both accept, with $n placeholders in order.
type PortfolioRepository struct {
	db     *sql.DB
	driver string
}

// Open connects with driver "sqlite3" or "postgres" and pings the database.
func Open(ctx context.Context, driver, dsn string) (*PortfolioRepository, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "sqlite3" {
		// one connection keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PortfolioRepository{db: db, driver: driver}, nil
}

func (r *PortfolioRepository) Close() error { return r.db.Close() }

func (r *PortfolioRepository) Driver() string { return r.driver }

// EnsureSchema creates the tables if they do not exist.
func (r *PortfolioRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			guess DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS portfolio_cashflows (
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			seq INT NOT NULL,
			date TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (portfolio_id, seq)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Save inserts p, or replaces the portfolio with the same name. Cash flows are
// rewritten in full inside the same transaction. p.ID and timestamps are set.
func (r *PortfolioRepository) Save(ctx context.Context, p *Portfolio) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrNameRequired
	}
	for i, cf := range p.CashFlows {
		if cf.Date.IsZero() {
			return fmt.Errorf("cash flow %d: %w", i+1, xirr.ErrMissingDate)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Truncate(time.Microsecond)
	var id string
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM portfolios WHERE name = $1`, p.Name).
		Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		createdAt = now
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO portfolios (id, name, guess, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			id, p.Name, p.Guess, createdAt, now); err != nil {
			return fmt.Errorf("insert portfolio %s: %w", p.Name, err)
		}
	case err != nil:
		return fmt.Errorf("lookup portfolio %s: %w", p.Name, err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE portfolios SET guess = $1, updated_at = $2 WHERE id = $3`,
			p.Guess, now, id); err != nil {
			return fmt.Errorf("update portfolio %s: %w", p.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_cashflows WHERE portfolio_id = $1`, id); err != nil {
		return err
	}
	for i, cf := range p.CashFlows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO portfolio_cashflows (portfolio_id, seq, date, amount)
			VALUES ($1, $2, $3, $4)`,
			id, i+1, cf.Date.String(), cf.Amount); err != nil {
			return fmt.Errorf("insert cash flow %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = createdAt
	p.UpdatedAt = now
	return nil
}

// Get loads one portfolio with its cash flows in saved order.
func (r *PortfolioRepository) Get(ctx context.Context, id string) (*Portfolio, error) {
	p := Portfolio{ID: id}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, guess, created_at, updated_at FROM portfolios WHERE id = $1`, id).
		Scan(&p.Name, &p.Guess, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT date, amount FROM portfolio_cashflows WHERE portfolio_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		cf, err := scanCashFlow(rows)
		if err != nil {
			return nil, err
		}
		p.CashFlows = append(p.CashFlows, cf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every portfolio, cash flows included, ordered by name.
func (r *PortfolioRepository) List(ctx context.Context) ([]Portfolio, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, guess, created_at, updated_at FROM portfolios ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Guess, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Traer cashflows en un solo query
	cfRows, err := r.db.QueryContext(ctx,
		`SELECT portfolio_id, date, amount FROM portfolio_cashflows ORDER BY portfolio_id, seq`)
	if err != nil {
		return nil, err
	}
	defer cfRows.Close()

	cfMap := make(map[string][]xirr.CashFlow)
	for cfRows.Next() {
		var portfolioID, date string
		var amount float64
		if err := cfRows.Scan(&portfolioID, &date, &amount); err != nil {
			return nil, err
		}
		d, err := xirr.ParseFecha(date)
		if err != nil {
			return nil, err
		}
		cfMap[portfolioID] = append(cfMap[portfolioID], xirr.CashFlow{Date: d, Amount: amount})
	}
	if err := cfRows.Err(); err != nil {
		return nil, err
	}

	for i := range portfolios {
		portfolios[i].CashFlows = cfMap[portfolios[i].ID]
	}
	return portfolios, nil
}

// Delete removes a portfolio and its cash flows.
func (r *PortfolioRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_cashflows WHERE portfolio_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// SeedFromJSON saves every portfolio in a JSON array file. Existing portfolios
// with the same name are replaced; others are left alone.
func (r *PortfolioRepository) SeedFromJSON(ctx context.Context, path string) (int, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var portfolios []Portfolio
	if err := json.Unmarshal(payload, &portfolios); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range portfolios {
		if err := r.Save(ctx, &portfolios[i]); err != nil {
			return i, fmt.Errorf("seed portfolio %q: %w", portfolios[i].Name, err)
		}
	}
	return len(portfolios), nil
}

func scanCashFlow(rows *sql.Rows) (xirr.CashFlow, error) {
	var date string
	var amount float64
	if err := rows.Scan(&date, &amount); err != nil {
		return xirr.CashFlow{}, err
	}
	d, err := xirr.ParseFecha(date)
	if err != nil {
		return xirr.CashFlow{}, err
	}
	return xirr.CashFlow{Date: d, Amount: amount}, nil
}
