// Package aggregate derives totals and breakdowns from a list of expenses.
//
// Every function is a pure function of its input: nothing is cached, and
// callers recompute from the current list whenever it changes.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/spendlog/spendlog/internal/model"
)

// AllCategories is the filter value that keeps every expense.
const AllCategories = "All"

// MonthLabelLayout renders a month as a short name plus four-digit year.
const MonthLabelLayout = "Jan 2006"

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category model.Category `json:"category" yaml:"category"`
	Amount   model.Amount   `json:"amount" yaml:"amount"`
}

// MonthTotal is the summed amount of one calendar month.
type MonthTotal struct {
	Month  string       `json:"month" yaml:"month"`
	Amount model.Amount `json:"amount" yaml:"amount"`
}

// Categories is an ordered category breakdown.
type Categories []CategoryTotal

// Map returns the breakdown keyed by category.
func (c Categories) Map() map[model.Category]model.Amount {
	m := make(map[model.Category]model.Amount, len(c))
	for _, ct := range c {
		m[ct.Category] = ct.Amount
	}
	return m
}

// Summary bundles every derived view of an expense list.
type Summary struct {
	Count      int          `json:"count" yaml:"count"`
	Total      model.Amount `json:"total" yaml:"total"`
	Categories Categories   `json:"categories" yaml:"categories"`
	Monthly    []MonthTotal `json:"monthly" yaml:"monthly"`
}

// Total sums all amounts; zero for an empty list.
func Total(expenses []model.Expense) model.Amount {
	var total model.Amount
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// CategoryBreakdown sums amounts per category. Known categories come first
// in taxonomy order, followed by any other labels alphabetically.
func CategoryBreakdown(expenses []model.Expense) Categories {
	sums := make(map[model.Category]model.Amount)
	for _, e := range expenses {
		sums[e.Category] += e.Amount
	}

	out := make(Categories, 0, len(sums))
	for c, amount := range sums {
		out = append(out, CategoryTotal{Category: c, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Category.Rank(), out[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyBreakdown sums amounts per calendar month of creation time,
// evaluated in loc (UTC when nil). Months are returned oldest first.
func MonthlyBreakdown(expenses []model.Expense, loc *time.Location) []MonthTotal {
	if loc == nil {
		loc = time.UTC
	}

	type month struct {
		year int
		mon  time.Month
	}
	sums := make(map[month]model.Amount)
	for _, e := range expenses {
		t := e.CreatedAt.In(loc)
		sums[month{t.Year(), t.Month()}] += e.Amount
	}

	keys := make([]month, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].mon < keys[j].mon
	})

	out := make([]MonthTotal, 0, len(keys))
	for _, k := range keys {
		label := time.Date(k.year, k.mon, 1, 0, 0, 0, 0, loc).Format(MonthLabelLayout)
		out = append(out, MonthTotal{Month: label, Amount: sums[k]})
	}
	return out
}

// FilterByCategory keeps expenses whose category matches case-insensitively.
// An empty filter or "All" keeps everything. The input is not modified.
func FilterByCategory(expenses []model.Expense, category string) []model.Expense {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategories) {
		return expenses
	}

	out := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if strings.EqualFold(string(e.Category), category) {
			out = append(out, e)
		}
	}
	return out
}

// Summarize computes every view over the given list.
func Summarize(expenses []model.Expense, loc *time.Location) Summary {
	return Summary{
		Count:      len(expenses),
		Total:      Total(expenses),
		Categories: CategoryBreakdown(expenses),
		Monthly:    MonthlyBreakdown(expenses, loc),
	}
}
