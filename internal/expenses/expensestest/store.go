// Package expensestest provides an in-memory expenses.Store for tests.
package expensestest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/naveenspark/tally/pkg/client"
	"github.com/naveenspark/tally/pkg/domain"
)

// Store keeps categories and expenses in memory. Set the *Err fields to make
// the matching call fail.
type Store struct {
	mu         sync.Mutex
	categories []domain.Category
	expenses   []domain.Expense

	ListErr       error
	CategoriesErr error
	LookupErr     error
	InsertErr     error

	// Unsorted returns expenses in insertion order instead of date order,
	// like a backend that ignores the order parameter.
	Unsorted bool

	Lookups int
	Inserts int
}

// New returns a Store seeded with the fixed category set, ids starting at 1.
func New() *Store {
	s := &Store{}
	for i, name := range domain.Categories {
		s.categories = append(s.categories, domain.Category{ID: int64(i + 1), Name: name})
	}
	return s
}

// Seed appends expenses as if they were already stored.
func (s *Store) Seed(es ...domain.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range es {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		s.expenses = append(s.expenses, e)
	}
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses)
}

// Last returns the most recently inserted expense.
func (s *Store) Last() domain.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses[len(s.expenses)-1]
}

func (s *Store) ListExpenses(context.Context) ([]domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]domain.Expense, len(s.expenses))
	copy(out, s.expenses)
	if !s.Unsorted {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	}
	return out, nil
}

func (s *Store) ListCategories(context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CategoriesErr != nil {
		return nil, s.CategoriesErr
	}
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *Store) LookupCategoryID(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	if s.LookupErr != nil {
		return 0, s.LookupErr
	}
	for _, c := range s.categories {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return 0, &client.CategoryNotFoundError{Name: name}
}

func (s *Store) InsertExpense(_ context.Context, e domain.NewExpense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Inserts++
	if s.InsertErr != nil {
		return nil, s.InsertErr
	}
	stored := domain.Expense{
		ID:          uuid.New(),
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
		UserID:      e.UserID,
	}
	s.expenses = append(s.expenses, stored)
	return &stored, nil
}
