package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

const wireDateLayout = "2006-01-02"

// wireDate is a calendar date encoded as YYYY-MM-DD. Timestamps with a time
// part are accepted and truncated.
type wireDate struct {
	time.Time
}

func (d wireDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(wireDateLayout))
}

func (d *wireDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if len(s) > len(wireDateLayout) {
		s = s[:len(wireDateLayout)]
	}
	t, err := time.Parse(wireDateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// optString normalizes optional text coming from the backend. Missing values
// sometimes arrive stringified as "null"; those are treated as absent.
type optString string

func (o *optString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*o = ""
		return nil
	}
	*o = optString(models.CleanOptional(*s))
	return nil
}

type wireUser struct {
	ID          int64     `json:"id,omitempty"`
	ChatID      int64     `json:"chatId"`
	DisplayName optString `json:"displayName,omitempty"`
}

func (u wireUser) toModel() models.User {
	return models.User{ID: u.ID, ChatID: u.ChatID, DisplayName: string(u.DisplayName)}
}

type registerUserBody struct {
	ChatID      int64  `json:"chatId"`
	DisplayName string `json:"displayName,omitempty"`
}

type wireIncome struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Date        wireDate        `json:"date"`
	Category    optString       `json:"category"`
	Source      optString       `json:"source"`
	Description optString       `json:"description"`
}

func (w wireIncome) toModel() (models.Income, error) {
	if w.ID == 0 {
		return models.Income{}, errors.New("income without id")
	}
	return models.Income{
		ID:          w.ID,
		UserID:      w.UserID,
		Amount:      w.Amount,
		Date:        w.Date.Time,
		Category:    string(w.Category),
		Source:      string(w.Source),
		Description: string(w.Description),
	}, nil
}

type wireExpense struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Date        wireDate        `json:"date"`
	Category    optString       `json:"category"`
	Description optString       `json:"description"`
}

func (w wireExpense) toModel() (models.Expense, error) {
	if w.ID == 0 {
		return models.Expense{}, errors.New("expense without id")
	}
	return models.Expense{
		ID:          w.ID,
		UserID:      w.UserID,
		Amount:      w.Amount,
		Date:        w.Date.Time,
		Category:    string(w.Category),
		Description: string(w.Description),
	}, nil
}

type incomeRequestBody struct {
	UserID      int64           `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Date        wireDate        `json:"date"`
	Category    string          `json:"category"`
	Source      *string         `json:"source"`
	Description *string         `json:"description"`
}

func incomeBody(req models.IncomeRequest) incomeRequestBody {
	return incomeRequestBody{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Date:        wireDate{req.Date},
		Category:    req.Category,
		Source:      nullable(req.Source),
		Description: nullable(req.Description),
	}
}

type expenseRequestBody struct {
	UserID      int64           `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Date        wireDate        `json:"date"`
	Category    string          `json:"category"`
	Description *string         `json:"description"`
}

func expenseBody(req models.ExpenseRequest) expenseRequestBody {
	return expenseRequestBody{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Date:        wireDate{req.Date},
		Category:    req.Category,
		Description: nullable(req.Description),
	}
}

// nullable sends empty optional text as JSON null.
func nullable(s string) *string {
	if models.CleanOptional(s) == "" {
		return nil
	}
	return &s
}

type wirePage[T any] struct {
	Content       []T `json:"content"`
	Number        int `json:"number"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}

func convertPage[W, M any](p wirePage[W], convert func(W) (M, error)) (models.Page[M], error) {
	items := make([]M, 0, len(p.Content))
	for _, w := range p.Content {
		m, err := convert(w)
		if err != nil {
			return models.Page[M]{}, fmt.Errorf("failed to decode page item: %w", err)
		}
		items = append(items, m)
	}
	return models.Page[M]{
		Items:      items,
		Page:       p.Number,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalElements,
	}, nil
}

type wireSummary struct {
	TotalIncome        decimal.Decimal `json:"totalIncome"`
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	Savings            decimal.Decimal `json:"savings"`
	SavingsRatePercent decimal.Decimal `json:"savingsRatePercent"`
}

func (s wireSummary) toModel() models.MonthlySummary {
	return models.MonthlySummary{
		TotalIncome:        s.TotalIncome,
		TotalExpenses:      s.TotalExpenses,
		Savings:            s.Savings,
		SavingsRatePercent: s.SavingsRatePercent,
	}
}
