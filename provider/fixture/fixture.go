// Package fixture implements an in-memory provider.Provider backed by
// badger/v4, for tests and the CLI demo (§6.1.1). It evaluates a single
// table's rows against a deserialized plan's WHERE/GROUP BY/HAVING/
// ORDER BY/paging clauses and its own projection list. It is
// deliberately not a second SQL engine: joins and subqueries in the
// supplied plan are rejected rather than executed, since nothing in
// this repository needs a fixture provider that joins.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/provider"
	"github.com/kestrelquery/queryable/qerr"
)

// Provider is an in-memory, badger-backed fixture data source.
type Provider struct {
	db *badger.DB
}

// New opens an in-memory badger database to back the fixture provider.
func New() (*Provider, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("fixture: failed to open badger: %w", err)
	}
	return &Provider{db: db}, nil
}

// Close releases the underlying badger database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Seed loads rows into table, writing row i over whatever row the table
// held at index i; rows at indices past len(rows) are kept. Each row
// maps a bare column name (not alias-qualified) to its value.
func (p *Provider) Seed(table string, rows []map[string]interface{}) error {
	return p.db.Update(func(txn *badger.Txn) error {
		for i, row := range rows {
			value, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("fixture: encoding row %d for %q: %w", i, table, err)
			}
			if err := txn.Set(rowKey(table, i), value); err != nil {
				return fmt.Errorf("fixture: writing row %d for %q: %w", i, table, err)
			}
		}
		return nil
	})
}

func rowKey(table string, index int) []byte {
	return []byte(fmt.Sprintf("row:%s:%08d", table, index))
}

// QueryAsync evaluates planMetadata and streams back the ordered result
// set as a single QueryResult.
func (p *Provider) QueryAsync(ctx context.Context, planMetadata []byte) <-chan provider.QueryResult {
	out := make(chan provider.QueryResult, 1)
	go func() {
		defer close(out)
		records, err := p.evaluate(ctx, planMetadata)
		if err != nil {
			out <- provider.QueryResult{Err: err}
			return
		}
		out <- provider.QueryResult{Records: records}
	}()
	return out
}

// FirstAsync evaluates planMetadata and streams back its first row, or
// a nil Record if none matched.
func (p *Provider) FirstAsync(ctx context.Context, planMetadata []byte) <-chan provider.FirstResult {
	out := make(chan provider.FirstResult, 1)
	go func() {
		defer close(out)
		records, err := p.evaluate(ctx, planMetadata)
		if err != nil {
			out <- provider.FirstResult{Err: err}
			return
		}
		if len(records) == 0 {
			out <- provider.FirstResult{}
			return
		}
		out <- provider.FirstResult{Record: &records[0]}
	}()
	return out
}

func (p *Provider) evaluate(ctx context.Context, planMetadata []byte) ([]provider.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
	}

	pl, err := provider.Deserialize(planMetadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
	}
	if len(pl.Joins) > 0 {
		return nil, fmt.Errorf("%w: fixture provider does not execute joins", qerr.ErrProviderFailure)
	}

	rows, err := p.scanTable(pl.TableName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
	}

	mkBindings := func(row map[string]interface{}) bindings {
		return bindings{alias: pl.Alias, row: row}
	}

	var filtered []map[string]interface{}
	for _, row := range rows {
		ok, err := evalBool(pl.WhereExpr, mkBindings(row))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
		}
		if ok {
			filtered = append(filtered, row)
		}
	}

	groups, _ := groupRows(pl.GroupKeys, filtered, mkBindings)
	// Without GROUP BY, HAVING or an aggregate projection every row is
	// its own group, so the query yields one record per matching row.
	perRow := len(pl.GroupKeys) == 0 && pl.HavingExpr == nil
	for _, proj := range pl.Projections {
		if _, ok := proj.Expr.(expr.Aggregate); ok {
			perRow = false
		}
	}
	if perRow {
		groups = make([][]map[string]interface{}, len(filtered))
		for i, row := range filtered {
			groups[i] = []map[string]interface{}{row}
		}
	}

	var kept []aggBindings
	for _, group := range groups {
		agg := aggBindings{alias: pl.Alias, rows: group}
		ok, err := evalBool(pl.HavingExpr, agg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
		}
		if ok {
			kept = append(kept, agg)
		}
	}

	if err := sortGroups(kept, pl.Orderings); err != nil {
		return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
	}

	out := make([]provider.Record, 0, len(kept))
	for _, agg := range kept {
		rec, err := projectRow(pl.Projections, agg, pl.Alias)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
		}
		if len(pl.Projections) == 0 && len(agg.rows) > 0 {
			// SELECT *: the record carries every column of the row.
			for k, v := range agg.rows[0] {
				if rec[k], err = expr.FromAny(v); err != nil {
					return nil, fmt.Errorf("%w: %v", qerr.ErrProviderFailure, err)
				}
			}
		}
		out = append(out, rec)
	}

	return page(out, pl.Offset, pl.Limit), nil
}

func page(records []provider.Record, offset, limit *int) []provider.Record {
	start := 0
	if offset != nil {
		start = *offset
	}
	if start > len(records) {
		start = len(records)
	}
	records = records[start:]
	if limit != nil && *limit < len(records) {
		records = records[:*limit]
	}
	return records
}

func (p *Provider) scanTable(table string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(fmt.Sprintf("row:%s:", table))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var row map[string]interface{}
				if err := json.Unmarshal(val, &row); err != nil {
					return err
				}
				rows = append(rows, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

// sortGroups orders groups in place per pl.Orderings, evaluating each
// ordering's expression against the group's aggregate bindings so that
// both plain-column and aggregate (orderByCount/Sum/...) terms work.
func sortGroups(groups []aggBindings, orderings []expr.Ordering) error {
	if len(orderings) == 0 {
		return nil
	}
	var evalErr error
	sort.SliceStable(groups, func(i, j int) bool {
		for _, o := range orderings {
			a, err := evalScalar(o.Expr, groups[i])
			if err != nil {
				evalErr = err
				return false
			}
			b, err := evalScalar(o.Expr, groups[j])
			if err != nil {
				evalErr = err
				return false
			}
			cmp := compareScalar(a, b)
			if cmp == 0 {
				continue
			}
			if o.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return evalErr
}
