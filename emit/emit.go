// Package emit renders an immutable query plan.Plan as Microsoft SQL
// Server T-SQL text. It is the single consumer of the expr/plan IR that
// knows anything about wire syntax — bracketed identifiers, TOP versus
// OFFSET/FETCH paging, N'...' literals, and operator precedence.
package emit

import (
	"fmt"
	"strings"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/plan"
	"github.com/kestrelquery/queryable/qerr"
)

// Emitter renders plans to T-SQL. It carries no state; New exists so the
// call site reads like every other component's constructor.
type Emitter struct{}

// New returns a ready-to-use Emitter.
func New() *Emitter { return &Emitter{} }

// Emit renders p as a complete T-SQL statement.
func (e *Emitter) Emit(p *plan.Plan) string {
	return emitPlan(p, "")
}

// emitPlan renders p's clauses joined by newlines. The first line
// ("SELECT ...") carries no leading indent — callers embedding p as a
// subquery place it directly after an opening "(" that already sits at
// the correct column. Every subsequent top-level clause line (FROM,
// WHERE, GROUP BY, HAVING, ORDER BY, OFFSET/FETCH) is prefixed with
// bodyIndent, as are projection lines placed after a TOP clause; join
// lines use bodyIndent plus one further two-space level.
func emitPlan(p *plan.Plan, bodyIndent string) string {
	warnInvalidPagination(p)

	joinIndent := bodyIndent + "  "

	var lines []string
	lines = append(lines, selectLines(p, bodyIndent)...)
	lines = append(lines, bodyIndent+"FROM "+fromClause(p))

	for _, j := range p.Joins {
		lines = append(lines, joinIndent+emitJoin(j, bodyIndent))
	}

	if p.WhereExpr != nil {
		lines = append(lines, bodyIndent+"WHERE "+emitExpr(p.WhereExpr, bodyIndent))
	}

	if len(p.GroupKeys) > 0 {
		keys := make([]string, len(p.GroupKeys))
		for i, k := range p.GroupKeys {
			keys[i] = emitExpr(k, bodyIndent)
		}
		lines = append(lines, bodyIndent+"GROUP BY "+strings.Join(keys, ", "))
	}

	if p.HavingExpr != nil {
		lines = append(lines, bodyIndent+"HAVING "+emitExpr(p.HavingExpr, bodyIndent))
	}

	if len(p.Orderings) > 0 {
		terms := make([]string, len(p.Orderings))
		for i, o := range p.Orderings {
			terms[i] = emitOrdering(o, bodyIndent)
		}
		lines = append(lines, bodyIndent+"ORDER BY "+strings.Join(terms, ", "))
	}

	if p.Offset != nil {
		lines = append(lines, fmt.Sprintf("%sOFFSET %d ROWS", bodyIndent, *p.Offset))
		if p.Limit != nil {
			lines = append(lines, fmt.Sprintf("%sFETCH NEXT %d ROWS ONLY", bodyIndent, *p.Limit))
		}
	}

	return strings.Join(lines, "\n")
}

// warnInvalidPagination flags §7's InvalidPaginationState: an offset
// set without both an explicit order and a limit has no deterministic
// row set to page through. Emission proceeds unchanged — the spec
// requires a warning, not a rewrite or a rejected plan.
func warnInvalidPagination(p *plan.Plan) {
	if p.Offset != nil && len(p.Orderings) == 0 && p.Limit == nil {
		p.Logger.Warn("%s: offset %d set without orderBy or limit on %q", qerr.ErrInvalidPagination, *p.Offset, p.TableName)
	}
}

func fromClause(p *plan.Plan) string {
	return quote(p.TableName) + " AS " + quote(p.Alias)
}

func emitJoin(j expr.Join, bodyIndent string) string {
	return fmt.Sprintf("%s %s AS %s ON %s", j.Kind, quote(j.Table), quote(j.Alias), emitExpr(j.Condition, bodyIndent))
}

func emitOrdering(o expr.Ordering, bodyIndent string) string {
	dir := "ASC"
	if !o.Ascending {
		dir = "DESC"
	}
	return emitExpr(o.Expr, bodyIndent) + " " + dir
}

// selectLines renders the SELECT keyword plus TOP/projection text,
// splitting the projection list across lines two at a time (§4.6, item
// 1). When TOP is present and projections are non-empty they always
// start on a new line; otherwise the first chunk is appended inline.
func selectLines(p *plan.Plan, bodyIndent string) []string {
	topPresent := p.Limit != nil && p.Offset == nil

	first := "SELECT"
	if topPresent {
		first += fmt.Sprintf(" TOP %d", *p.Limit)
	}

	if len(p.Projections) == 0 {
		return []string{first + " *"}
	}

	projTexts := make([]string, len(p.Projections))
	for i, proj := range p.Projections {
		projTexts[i] = emitExpr(proj.Expr, bodyIndent)
		if proj.Alias != "" {
			projTexts[i] += " AS " + quote(proj.Alias)
		}
	}

	chunks := chunkStrings(projTexts, 2)
	if topPresent {
		lines := make([]string, 0, len(chunks)+1)
		lines = append(lines, first)
		for _, c := range chunks {
			lines = append(lines, bodyIndent+strings.Join(c, ", "))
		}
		return lines
	}

	lines := make([]string, 0, len(chunks))
	lines = append(lines, first+" "+strings.Join(chunks[0], ", "))
	for _, c := range chunks[1:] {
		lines = append(lines, bodyIndent+strings.Join(c, ", "))
	}
	return lines
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
