// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Category is an expense classification label.
type Category string

// Fixed category taxonomy.
const (
	CategoryFood     Category = "Food"
	CategoryTravel   Category = "Travel"
	CategoryShopping Category = "Shopping"
	CategoryBills    Category = "Bills"
	CategoryOther    Category = "Other"
)

// Categories lists the taxonomy in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryShopping,
	CategoryBills,
	CategoryOther,
}

// ParseCategory matches s against the taxonomy case-insensitively and
// returns the canonical label.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Rank returns the display position of the category, or len(Categories)
// for labels outside the taxonomy.
func (c Category) Rank() int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return len(Categories)
}

// Expense is a single spending entry owned by exactly one user.
type Expense struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Amount    Amount    `json:"amount"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
