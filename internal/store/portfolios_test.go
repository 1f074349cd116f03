package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmtruffa/xirr"
)

func newRepo(t *testing.T) *PortfolioRepository {
	t.Helper()
	ctx := context.Background()
	repo, err := Open(ctx, "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func flow(date string, amount float64) xirr.CashFlow {
	d, err := xirr.ParseFecha(date)
	if err != nil {
		panic(err)
	}
	return xirr.CashFlow{Date: d, Amount: amount}
}

func TestSaveAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := &Portfolio{
		Name:  "  sip ",
		Guess: 0.4,
		CashFlows: []xirr.CashFlow{
			flow("2021-01-01", -10000),
			flow("2022-01-01", -10000),
			flow("2024-01-01", 40000),
		},
	}
	require.NoError(t, repo.Save(ctx, p))
	require.NotEmpty(t, p.ID)
	assert.Equal(t, "sip", p.Name)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "sip", got.Name)
	assert.Equal(t, 0.4, got.Guess)
	assert.Equal(t, p.CashFlows, got.CashFlows)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Second)
}

func TestSave_ReplacesByName(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := &Portfolio{Name: "fd", CashFlows: []xirr.CashFlow{flow("2020-01-01", -1), flow("2021-01-01", 2)}}
	require.NoError(t, repo.Save(ctx, first))

	second := &Portfolio{Name: "fd", Guess: 0.2, CashFlows: []xirr.CashFlow{flow("2020-01-01", -5)}}
	require.NoError(t, repo.Save(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.2, got.Guess)
	assert.Equal(t, []xirr.CashFlow{flow("2020-01-01", -5)}, got.CashFlows)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSave_RequiresName(t *testing.T) {
	repo := newRepo(t)
	assert.ErrorIs(t, repo.Save(context.Background(), &Portfolio{Name: "   "}), ErrNameRequired)
}

func TestSave_RequiresDates(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	err := repo.Save(ctx, &Portfolio{Name: "undated", CashFlows: []xirr.CashFlow{
		flow("2020-01-01", -1000),
		{Amount: 1100},
	}})
	assert.ErrorIs(t, err, xirr.ErrMissingDate)
	assert.Contains(t, err.Error(), "cash flow 2")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestList(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &Portfolio{Name: "b", CashFlows: []xirr.CashFlow{flow("2020-01-01", -1), flow("2020-06-01", 1)}}))
	require.NoError(t, repo.Save(ctx, &Portfolio{Name: "a", CashFlows: []xirr.CashFlow{flow("2020-02-01", 3)}}))
	require.NoError(t, repo.Save(ctx, &Portfolio{Name: "c"}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name)
	assert.Len(t, all[0].CashFlows, 1)
	assert.Equal(t, "b", all[1].Name)
	assert.Equal(t, []xirr.CashFlow{flow("2020-01-01", -1), flow("2020-06-01", 1)}, all[1].CashFlows)
	assert.Empty(t, all[2].CashFlows)
}

func TestDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := &Portfolio{Name: "x", CashFlows: []xirr.CashFlow{flow("2020-01-01", -1)}}
	require.NoError(t, repo.Save(ctx, p))

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), ErrNotFound)
}

func TestSeedFromJSON(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portfolios.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "one-year", "guess": 0.1, "cash_flows": [
			{"date": "2020-01-01", "amount": -1000},
			{"date": "2021-01-01", "amount": 1100}
		]},
		{"name": "empty"}
	]`), 0o644))

	n, err := repo.SeedFromJSON(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "empty", all[0].Name)
	assert.Len(t, all[1].CashFlows, 2)

	_, err = repo.SeedFromJSON(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}
