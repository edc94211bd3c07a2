package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/finance-bot/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP/JSON client for the finance backend.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithPageSize overrides the listing page size.
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// NewClient creates a backend client. Requests are traced through otelhttp.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		pageSize: DefaultPageSize,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Backend = (*Client)(nil)

// GetUserByChatID looks up the user bound to a chat.
func (c *Client) GetUserByChatID(ctx context.Context, chatID int64) (models.User, error) {
	var u wireUser
	if err := c.do(ctx, http.MethodGet, "/api/users/by-chat/"+strconv.FormatInt(chatID, 10), nil, nil, &u); err != nil {
		return models.User{}, fmt.Errorf("failed to get user by chat: %w", err)
	}
	return u.toModel(), nil
}

// RegisterUser creates a user for a chat.
func (c *Client) RegisterUser(ctx context.Context, chatID int64, displayName string) (models.User, error) {
	body := registerUserBody{ChatID: chatID, DisplayName: strings.TrimSpace(displayName)}
	var u wireUser
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, body, &u); err != nil {
		return models.User{}, fmt.Errorf("failed to register user: %w", err)
	}
	return u.toModel(), nil
}

// AddIncome creates an income.
func (c *Client) AddIncome(ctx context.Context, req models.IncomeRequest) (models.Income, error) {
	var in wireIncome
	if err := c.do(ctx, http.MethodPost, "/api/incomes", nil, incomeBody(req), &in); err != nil {
		return models.Income{}, fmt.Errorf("failed to add income: %w", err)
	}
	return in.toModel()
}

// AddExpense creates an expense.
func (c *Client) AddExpense(ctx context.Context, req models.ExpenseRequest) (models.Expense, error) {
	var ex wireExpense
	if err := c.do(ctx, http.MethodPost, "/api/expenses", nil, expenseBody(req), &ex); err != nil {
		return models.Expense{}, fmt.Errorf("failed to add expense: %w", err)
	}
	return ex.toModel()
}

// GetIncomeByID fetches one income.
func (c *Client) GetIncomeByID(ctx context.Context, id int64) (models.Income, error) {
	var in wireIncome
	if err := c.do(ctx, http.MethodGet, recordPath("incomes", id), nil, nil, &in); err != nil {
		return models.Income{}, fmt.Errorf("failed to get income %d: %w", id, err)
	}
	return in.toModel()
}

// GetExpenseByID fetches one expense.
func (c *Client) GetExpenseByID(ctx context.Context, id int64) (models.Expense, error) {
	var ex wireExpense
	if err := c.do(ctx, http.MethodGet, recordPath("expenses", id), nil, nil, &ex); err != nil {
		return models.Expense{}, fmt.Errorf("failed to get expense %d: %w", id, err)
	}
	return ex.toModel()
}

// UpdateIncome replaces an income.
func (c *Client) UpdateIncome(ctx context.Context, id int64, req models.IncomeRequest) error {
	if err := c.do(ctx, http.MethodPut, recordPath("incomes", id), nil, incomeBody(req), nil); err != nil {
		return fmt.Errorf("failed to update income %d: %w", id, err)
	}
	return nil
}

// UpdateExpense replaces an expense.
func (c *Client) UpdateExpense(ctx context.Context, id int64, req models.ExpenseRequest) error {
	if err := c.do(ctx, http.MethodPut, recordPath("expenses", id), nil, expenseBody(req), nil); err != nil {
		return fmt.Errorf("failed to update expense %d: %w", id, err)
	}
	return nil
}

// DeleteIncome removes an income.
func (c *Client) DeleteIncome(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, recordPath("incomes", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete income %d: %w", id, err)
	}
	return nil
}

// DeleteExpense removes an expense.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, recordPath("expenses", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete expense %d: %w", id, err)
	}
	return nil
}

// ListIncomesByMonth returns one page of a user's incomes for a month. Pages are 0-based.
func (c *Client) ListIncomesByMonth(ctx context.Context, userID int64, year, month, page int) (models.Page[models.Income], error) {
	var p wirePage[wireIncome]
	if err := c.do(ctx, http.MethodGet, monthPath("incomes", userID), c.monthQuery(year, month, page), nil, &p); err != nil {
		return models.Page[models.Income]{}, fmt.Errorf("failed to list incomes: %w", err)
	}
	return convertPage(p, wireIncome.toModel)
}

// ListExpensesByMonth returns one page of a user's expenses for a month. Pages are 0-based.
func (c *Client) ListExpensesByMonth(ctx context.Context, userID int64, year, month, page int) (models.Page[models.Expense], error) {
	var p wirePage[wireExpense]
	if err := c.do(ctx, http.MethodGet, monthPath("expenses", userID), c.monthQuery(year, month, page), nil, &p); err != nil {
		return models.Page[models.Expense]{}, fmt.Errorf("failed to list expenses: %w", err)
	}
	return convertPage(p, wireExpense.toModel)
}

// GetMonthlySummary returns the month's totals for a user.
func (c *Client) GetMonthlySummary(ctx context.Context, userID int64, year, month int) (models.MonthlySummary, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	var s wireSummary
	if err := c.do(ctx, http.MethodGet, "/api/summary/user/"+strconv.FormatInt(userID, 10), q, nil, &s); err != nil {
		return models.MonthlySummary{}, fmt.Errorf("failed to get monthly summary: %w", err)
	}
	return s.toModel(), nil
}

func (c *Client) monthQuery(year, month, page int) url.Values {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(c.pageSize))
	return q
}

func recordPath(collection string, id int64) string {
	return "/api/" + collection + "/" + strconv.FormatInt(id, 10)
}

func monthPath(collection string, userID int64) string {
	return "/api/" + collection + "/user/" + strconv.FormatInt(userID, 10) + "/month"
}

// do sends one request. A nil in skips the body; a nil out discards the response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
