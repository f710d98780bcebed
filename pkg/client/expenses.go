package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/naveenspark/tally/pkg/domain"
)

const (
	tableExpenses   = "expenses"
	tableCategories = "categories"
)

// ListExpenses returns every expense visible to the current user, newest first.
func (c *Client) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	var expenses []domain.Expense
	if err := c.Select(ctx, tableExpenses, Query{Order: "date", Desc: true}, &expenses); err != nil {
		return nil, fmt.Errorf("client.ListExpenses: %w", err)
	}
	return expenses, nil
}

// ListCategories returns the categories lookup table.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.Select(ctx, tableCategories, Query{Columns: "id,name", Order: "id"}, &cats); err != nil {
		return nil, fmt.Errorf("client.ListCategories: %w", err)
	}
	return cats, nil
}

// LookupCategoryID resolves a category name to its id. A missing name yields a
// *CategoryNotFoundError.
func (c *Client) LookupCategoryID(ctx context.Context, name string) (int64, error) {
	var row struct {
		ID int64 `json:"id"`
	}
	q := Query{Columns: "id", Filters: []Filter{Eq("name", name)}, Single: true}
	if err := c.Select(ctx, tableCategories, q, &row); err != nil {
		if errors.Is(err, ErrNoRows) {
			return 0, &CategoryNotFoundError{Name: name}
		}
		return 0, fmt.Errorf("client.LookupCategoryID: %w", err)
	}
	return row.ID, nil
}

// InsertExpense inserts one expense and returns the stored row.
func (c *Client) InsertExpense(ctx context.Context, e domain.NewExpense) (*domain.Expense, error) {
	var rows []domain.Expense
	if err := c.Insert(ctx, tableExpenses, []domain.NewExpense{e}, &rows); err != nil {
		return nil, fmt.Errorf("client.InsertExpense: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("client.InsertExpense: %w", ErrNoRows)
	}
	return &rows[0], nil
}
