// Command queryable is a small demo/smoke-test CLI: it builds a handful
// of query pipelines against an in-memory fixture provider, prints the
// compiled T-SQL, and renders the fixture results as a table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/kestrelquery/queryable/provider"
	"github.com/kestrelquery/queryable/provider/fixture"
	"github.com/kestrelquery/queryable/queryable"
	"github.com/kestrelquery/queryable/trace"
)

func main() {
	var verbose bool
	var scenario string
	var help bool

	flag.BoolVar(&verbose, "verbose", false, "print a trace line before running each scenario")
	flag.StringVar(&scenario, "scenario", "", "run a single named scenario and exit (default: run all)")
	flag.BoolVar(&help, "h", false, "show help")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles demo query pipelines to T-SQL and runs them against an in-memory fixture.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nScenarios: %s\n", strings.Join(scenarioNames(), ", "))
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	logger := trace.New(os.Stderr)

	fx, err := fixture.New()
	if err != nil {
		log.Fatalf("failed to start fixture provider: %v", err)
	}
	defer fx.Close()

	if err := seed(fx); err != nil {
		log.Fatalf("failed to seed fixture data: %v", err)
	}

	for _, s := range scenarios(fx, logger) {
		if scenario != "" && s.name != scenario {
			continue
		}
		if verbose {
			logger.Debug("running scenario %q", s.name)
		}
		runScenario(s)
	}
}

type demoScenario struct {
	name string
	run  func() (sql string, rows []provider.Record, err error)
}

func scenarioNames() []string {
	names := make([]string, len(scenarios(nil, nil)))
	for i, s := range scenarios(nil, nil) {
		names[i] = s.name
	}
	return names
}

func runScenario(s demoScenario) {
	sql, rows, err := s.run()
	fmt.Printf("\n=== %s ===\n", s.name)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(sql)
	if rows != nil {
		printRows(rows)
	}
}

func seed(fx *fixture.Provider) error {
	if err := fx.Seed("users", []map[string]interface{}{
		{"id": 1, "name": "Alice", "age": 29, "status": "active", "salary": 95000.0},
		{"id": 2, "name": "Bob", "age": 17, "status": "pending", "salary": 40000.0},
		{"id": 3, "name": "Carol", "age": 41, "status": "inactive", "salary": 120000.0},
	}); err != nil {
		return err
	}
	return fx.Seed("orders", []map[string]interface{}{
		{"id": 100, "userId": 1, "amount": 250.0},
		{"id": 101, "userId": 3, "amount": 75.0},
	})
}

func scenarios(fx *fixture.Provider, logger *trace.Logger) []demoScenario {
	var ctx *queryable.Context
	if fx != nil {
		ctx = queryable.NewContext(fx, logger)
	} else {
		ctx = queryable.NewContext(nil, logger)
	}

	return []demoScenario{
		{
			name: "average-age-of-adults",
			run: func() (string, []provider.Record, error) {
				u, err := ctx.Set("users")
				if err != nil {
					return "", nil, err
				}
				u, err = u.Where("u => u.age > 18")
				if err != nil {
					return "", nil, err
				}
				u, err = u.Avg("u => u.age", "avg")
				if err != nil {
					return "", nil, err
				}
				rows, err := u.Query(context.Background())
				return u.SQL(), rows, err
			},
		},
		{
			name: "status-membership",
			run: func() (string, []provider.Record, error) {
				u, err := ctx.Set("users")
				if err != nil {
					return "", nil, err
				}
				u, err = u.WithVariables(map[string]interface{}{"allowed": []string{"active", "pending"}})
				if err != nil {
					return "", nil, err
				}
				u, err = u.Where("(u,p) => p.allowed.includes(u.status)")
				if err != nil {
					return "", nil, err
				}
				rows, err := u.Query(context.Background())
				return u.SQL(), rows, err
			},
		},
		{
			name: "top-earner-by-limit",
			run: func() (string, []provider.Record, error) {
				u, err := ctx.Set("users")
				if err != nil {
					return "", nil, err
				}
				u, err = u.OrderByDesc("u => u.salary")
				if err != nil {
					return "", nil, err
				}
				u = u.Limit(1)
				rows, err := u.Query(context.Background())
				return u.SQL(), rows, err
			},
		},
	}
}

func printRows(rows []provider.Record) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	var columns []string
	seen := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	alignment := make([]tw.Align, len(columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(columns)
	for _, row := range rows {
		rendered := make([]string, len(columns))
		for i, col := range columns {
			rendered[i] = row[col].String()
		}
		table.Append(rendered)
	}
	table.Render()
}
