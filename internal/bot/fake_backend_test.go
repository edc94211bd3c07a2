package bot

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/apiclient"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

var _ apiclient.Backend = (*fakeBackend)(nil)

type incomeUpdate struct {
	ID  int64
	Req appmodels.IncomeRequest
}

type expenseUpdate struct {
	ID  int64
	Req appmodels.ExpenseRequest
}

// fakeBackend is an in-memory backend recording every write.
type fakeBackend struct {
	mu sync.Mutex

	nextIncomeID  int64
	nextExpenseID int64
	users         map[int64]appmodels.User
	incomes       map[int64]appmodels.Income
	expenses      map[int64]appmodels.Expense
	pageSize      int

	summary appmodels.MonthlySummary

	addedIncomes    []appmodels.IncomeRequest
	addedExpenses   []appmodels.ExpenseRequest
	updatedIncomes  []incomeUpdate
	updatedExpenses []expenseUpdate
	deletedIncomes  []int64
	deletedExpenses []int64
	registered      int
	fetchOrder      []appmodels.RecordKind

	addErr     error
	updateErr  error
	listErr    error
	summaryErr error
	userErr    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextIncomeID:  100,
		nextExpenseID: 100,
		users:         make(map[int64]appmodels.User),
		incomes:       make(map[int64]appmodels.Income),
		expenses:      make(map[int64]appmodels.Expense),
		pageSize:      apiclient.DefaultPageSize,
	}
}

// Incomes and expenses number their ids independently, as the backend does.
func (f *fakeBackend) newIncomeID() int64 {
	f.nextIncomeID++
	return f.nextIncomeID
}

func (f *fakeBackend) newExpenseID() int64 {
	f.nextExpenseID++
	return f.nextExpenseID
}

func (f *fakeBackend) seedIncome(userID int64, amount int64, date time.Time, category, source string) appmodels.Income {
	f.mu.Lock()
	defer f.mu.Unlock()

	in := appmodels.Income{
		ID:       f.newIncomeID(),
		UserID:   userID,
		Amount:   decimal.NewFromInt(amount),
		Date:     date,
		Category: category,
		Source:   source,
	}
	f.incomes[in.ID] = in
	return in
}

func (f *fakeBackend) seedExpense(userID int64, amount int64, date time.Time, category, description string) appmodels.Expense {
	f.mu.Lock()
	defer f.mu.Unlock()

	ex := appmodels.Expense{
		ID:          f.newExpenseID(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(amount),
		Date:        date,
		Category:    category,
		Description: description,
	}
	f.expenses[ex.ID] = ex
	return ex
}

func (f *fakeBackend) GetUserByChatID(_ context.Context, chatID int64) (appmodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.userErr != nil {
		return appmodels.User{}, f.userErr
	}
	u, ok := f.users[chatID]
	if !ok {
		return appmodels.User{}, apiclient.ErrNotFound
	}
	return u, nil
}

func (f *fakeBackend) RegisterUser(_ context.Context, chatID int64, displayName string) (appmodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.registered++
	u := appmodels.User{ID: chatID + 1, ChatID: chatID, DisplayName: displayName}
	f.users[chatID] = u
	return u, nil
}

func (f *fakeBackend) AddIncome(_ context.Context, req appmodels.IncomeRequest) (appmodels.Income, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.addedIncomes = append(f.addedIncomes, req)
	if f.addErr != nil {
		return appmodels.Income{}, f.addErr
	}
	in := appmodels.Income{ID: f.newIncomeID(), UserID: req.UserID, Amount: req.Amount, Date: req.Date, Category: req.Category, Source: req.Source, Description: req.Description}
	f.incomes[in.ID] = in
	return in, nil
}

func (f *fakeBackend) AddExpense(_ context.Context, req appmodels.ExpenseRequest) (appmodels.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.addedExpenses = append(f.addedExpenses, req)
	if f.addErr != nil {
		return appmodels.Expense{}, f.addErr
	}
	ex := appmodels.Expense{ID: f.newExpenseID(), UserID: req.UserID, Amount: req.Amount, Date: req.Date, Category: req.Category, Description: req.Description}
	f.expenses[ex.ID] = ex
	return ex, nil
}

func (f *fakeBackend) GetIncomeByID(_ context.Context, id int64) (appmodels.Income, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetchOrder = append(f.fetchOrder, appmodels.KindIncome)
	in, ok := f.incomes[id]
	if !ok {
		return appmodels.Income{}, apiclient.ErrNotFound
	}
	return in, nil
}

func (f *fakeBackend) GetExpenseByID(_ context.Context, id int64) (appmodels.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetchOrder = append(f.fetchOrder, appmodels.KindExpense)
	ex, ok := f.expenses[id]
	if !ok {
		return appmodels.Expense{}, apiclient.ErrNotFound
	}
	return ex, nil
}

func (f *fakeBackend) UpdateIncome(_ context.Context, id int64, req appmodels.IncomeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updatedIncomes = append(f.updatedIncomes, incomeUpdate{ID: id, Req: req})
	return f.updateErr
}

func (f *fakeBackend) UpdateExpense(_ context.Context, id int64, req appmodels.ExpenseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updatedExpenses = append(f.updatedExpenses, expenseUpdate{ID: id, Req: req})
	return f.updateErr
}

func (f *fakeBackend) DeleteIncome(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletedIncomes = append(f.deletedIncomes, id)
	delete(f.incomes, id)
	return nil
}

func (f *fakeBackend) DeleteExpense(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletedExpenses = append(f.deletedExpenses, id)
	delete(f.expenses, id)
	return nil
}

func inMonth(date time.Time, year, month int) bool {
	return date.Year() == year && int(date.Month()) == month
}

func paginate[T any](items []T, page, size int) appmodels.Page[T] {
	total := (len(items) + size - 1) / size
	start := min(page*size, len(items))
	end := min(start+size, len(items))
	return appmodels.Page[T]{
		Items:      items[start:end],
		Page:       page,
		TotalPages: total,
		TotalItems: len(items),
	}
}

func (f *fakeBackend) ListIncomesByMonth(_ context.Context, userID int64, year, month, page int) (appmodels.Page[appmodels.Income], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return appmodels.Page[appmodels.Income]{}, f.listErr
	}
	var items []appmodels.Income
	for _, in := range f.incomes {
		if in.UserID == userID && inMonth(in.Date, year, month) {
			items = append(items, in)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, page, f.pageSize), nil
}

func (f *fakeBackend) ListExpensesByMonth(_ context.Context, userID int64, year, month, page int) (appmodels.Page[appmodels.Expense], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return appmodels.Page[appmodels.Expense]{}, f.listErr
	}
	var items []appmodels.Expense
	for _, ex := range f.expenses {
		if ex.UserID == userID && inMonth(ex.Date, year, month) {
			items = append(items, ex)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, page, f.pageSize), nil
}

func (f *fakeBackend) GetMonthlySummary(_ context.Context, _ int64, _, _ int) (appmodels.MonthlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.summaryErr != nil {
		return appmodels.MonthlySummary{}, f.summaryErr
	}
	return f.summary, nil
}

const (
	testChatID = int64(4242)
	testUserID = testChatID + 1
)

var testNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// setupTestDispatcher wires a Dispatcher over a fake backend with a fixed clock.
func setupTestDispatcher(t *testing.T, opts ...DispatcherOption) (*Dispatcher, *fakeBackend, *session.Store) {
	t.Helper()

	backend := newFakeBackend()
	store := session.NewStore()
	base := []DispatcherOption{
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
		WithListingYears([]int{2024, 2025, 2026}),
		WithAPITimeout(time.Second),
	}
	d := NewDispatcher(store, backend, append(base, opts...)...)
	return d, backend, store
}
