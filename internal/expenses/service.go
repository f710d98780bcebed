// Package expenses implements listing and adding expenses on top of the
// remote row store.
package expenses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/tally/pkg/client"
	"github.com/naveenspark/tally/pkg/domain"
)

// Uncategorized is shown for rows whose category reference is null.
const Uncategorized = "Uncategorized"

// Store is the row-store surface the service needs. *client.Client implements it.
type Store interface {
	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	LookupCategoryID(ctx context.Context, name string) (int64, error)
	InsertExpense(ctx context.Context, e domain.NewExpense) (*domain.Expense, error)
}

// Row is an expense joined with its category name for display.
type Row struct {
	domain.Expense
	CategoryName string
}

// Service lists and adds expenses.
type Service struct {
	store  Store
	strict bool
	log    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStrictCategories makes Add fail when the category name has no row,
// instead of inserting with a null category.
func WithStrictCategories(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all of the user's expenses, newest date first, with category
// names resolved. The categories read is best-effort: on failure rows show the
// raw category id.
func (s *Service) List(ctx context.Context) ([]Row, error) {
	var (
		expenses []domain.Expense
		cats     []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.store.ListCategories(gctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("list categories")
			cats = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("expenses.List: %w", err)
	}

	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	rows := make([]Row, len(expenses))
	for i, e := range expenses {
		rows[i] = Row{Expense: e, CategoryName: categoryName(e.Category, names)}
	}
	// The store already orders by date; keep its order for equal dates.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date > rows[j].Date
	})
	s.log.Debug().Int("count", len(rows)).Msg("expenses listed")
	return rows, nil
}

func categoryName(id *int64, names map[int64]string) string {
	if id == nil {
		return Uncategorized
	}
	if n, ok := names[*id]; ok {
		return n
	}
	return fmt.Sprintf("#%d", *id)
}

// Draft is the add form's raw input.
type Draft struct {
	Amount      string
	Category    string
	Description string
	Date        string
}

// NewDraft returns an empty draft dated today.
func NewDraft(now time.Time) Draft {
	return Draft{Date: domain.Today(now)}
}

// Field-level validation errors returned by Draft.Validate.
var (
	ErrCategoryRequired    = errors.New("category is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
)

// Validate checks the draft and returns the parsed amount. It does not check
// the category against the fixed set; the store lookup decides that.
func (d Draft) Validate() (float64, error) {
	amount, err := domain.ParseAmount(d.Amount)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(d.Category) == "" {
		return 0, ErrCategoryRequired
	}
	if strings.TrimSpace(d.Description) == "" {
		return 0, ErrDescriptionRequired
	}
	if _, err := domain.ParseDate(d.Date); err != nil {
		return 0, ErrInvalidDate
	}
	return amount, nil
}

// Add resolves the draft's category, then inserts the expense for userID.
//
// When the category name has no row the lookup yields a
// *client.CategoryNotFoundError. In strict mode that error is returned and
// nothing is written; otherwise the expense is inserted with a null category.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, d Draft) (*domain.Expense, error) {
	amount, err := d.Validate()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(d.Category)

	var category *int64
	id, err := s.store.LookupCategoryID(ctx, name)
	switch {
	case err == nil:
		category = &id
	case errors.Is(err, client.ErrCategoryNotFound) && !s.strict:
		s.log.Warn().Str("category", name).Msg("category not found, inserting without category")
	default:
		return nil, fmt.Errorf("expenses.Add: %w", err)
	}

	e, err := s.store.InsertExpense(ctx, domain.NewExpense{
		Amount:      amount,
		Category:    category,
		Description: strings.TrimSpace(d.Description),
		Date:        strings.TrimSpace(d.Date),
		UserID:      userID,
	})
	if err != nil {
		return nil, fmt.Errorf("expenses.Add: %w", err)
	}
	s.log.Info().Str("id", e.ID.String()).Msg("expense added")
	return e, nil
}
