package transactions

import (
	"strconv"
	"strings"
)

// Filter is the listing predicate: a period plus an optional free-text term.
type Filter struct {
	Period Period
	Search string
}

// NewFilter builds a predicate. A blank search term is dropped entirely.
func NewFilter(period Period, search string) Filter {
	return Filter{Period: period, Search: strings.TrimSpace(search)}
}

// HasSearch reports whether the text clause is active.
func (f Filter) HasSearch() bool {
	return f.Search != ""
}

// Match evaluates the predicate against a single record.
func (f Filter) Match(tx Transaction) bool {
	if !f.Period.Contains(tx.DateOfSale) {
		return false
	}
	if !f.HasSearch() {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(tx.Title), term) ||
		strings.Contains(strings.ToLower(tx.Description), term) ||
		strings.Contains(tx.PriceText(), term)
}

// Where renders the predicate as a PostgreSQL boolean expression. Placeholders
// are numbered after offset, so callers can append their own arguments.
func (f Filter) Where(offset int) (string, []any) {
	clause, args := f.Period.Where(offset)
	if !f.HasSearch() {
		return clause, args
	}
	p := placeholder(offset + len(args) + 1)
	clause += ` AND (title ILIKE ` + p + ` ESCAPE '\' OR description ILIKE ` + p + ` ESCAPE '\' OR price::text ILIKE ` + p + ` ESCAPE '\')`
	args = append(args, "%"+escapeLike(f.Search)+"%")
	return clause, args
}

// Where renders the period restriction on date_of_sale.
func (p Period) Where(offset int) (string, []any) {
	if r, ok := p.Range(); ok {
		return `date_of_sale BETWEEN ` + placeholder(offset+1) + ` AND ` + placeholder(offset+2), []any{r.Start, r.End}
	}
	return `EXTRACT(MONTH FROM date_of_sale) = ` + placeholder(offset+1), []any{int(p.Month)}
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
