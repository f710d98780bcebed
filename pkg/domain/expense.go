package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and input format of expense dates.
const DateLayout = "2006-01-02"

// displayDateLayout renders dates as "January 15, 2024".
const displayDateLayout = "January 2, 2006"

// ErrInvalidAmount is returned when an amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Expense is a single expense row owned by one user.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	Amount      float64   `json:"amount"`
	Category    *int64    `json:"category"` // categories.id, nil when unresolved
	Description string    `json:"description"`
	Date        string    `json:"date"`
	UserID      uuid.UUID `json:"user_id"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// NewExpense is the insert payload for the expenses table.
// Category is sent as null when it could not be resolved.
type NewExpense struct {
	Amount      float64   `json:"amount"`
	Category    *int64    `json:"category"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	UserID      uuid.UUID `json:"user_id"`
}

// ParseAmount parses a user-entered amount as a float.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders an amount with exactly two decimals, e.g. "$42.50".
func FormatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a YYYY-MM-DD date for display. Values that do not parse
// are returned unchanged.
func FormatDate(s string) string {
	// Some stores return a full timestamp for date columns.
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format(displayDateLayout)
		}
	}
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(displayDateLayout)
}

// Today returns now formatted as an expense date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
