// Package session holds per-chat conversational state: the wizard position,
// the draft being built and the most recently rendered listing.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

// State is the wizard position of a chat.
type State string

const (
	StateIdle State = "idle"

	StateIncomeAmount      State = "income_amount"
	StateIncomeDate        State = "income_date"
	StateIncomeCategory    State = "income_category"
	StateIncomeSource      State = "income_source"
	StateIncomeDescription State = "income_description"

	StateExpenseAmount      State = "expense_amount"
	StateExpenseDate        State = "expense_date"
	StateExpenseCategory    State = "expense_category"
	StateExpenseDescription State = "expense_description"

	StateEditChooseIndex State = "edit_choose_index"
	StateEditAmount      State = "edit_amount"
	StateEditDate        State = "edit_date"
	StateEditCategory    State = "edit_category"
)

// IsEditing reports whether the state belongs to the edit wizard.
func (s State) IsEditing() bool {
	switch s {
	case StateEditChooseIndex, StateEditAmount, StateEditDate, StateEditCategory:
		return true
	}
	return false
}

// IsIncome reports whether the state belongs to the new-income wizard.
func (s State) IsIncome() bool {
	switch s {
	case StateIncomeAmount, StateIncomeDate, StateIncomeCategory, StateIncomeSource, StateIncomeDescription:
		return true
	}
	return false
}

// IsExpense reports whether the state belongs to the new-expense wizard.
func (s State) IsExpense() bool {
	switch s {
	case StateExpenseAmount, StateExpenseDate, StateExpenseCategory, StateExpenseDescription:
		return true
	}
	return false
}

// IncomeDraft accumulates income fields across wizard steps.
type IncomeDraft struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Source      string          `json:"source,omitempty"`
	Description string          `json:"description,omitempty"`
}

// ExpenseDraft accumulates expense fields across wizard steps.
type ExpenseDraft struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
}

// ChatSession is the wizard state of one chat.
type ChatSession struct {
	State             State
	DraftIncome       *IncomeDraft
	DraftExpense      *ExpenseDraft
	EditingRecordID   *int64
	EditingRecordKind *models.RecordKind
}

// NewChatSession returns an Idle session.
func NewChatSession() ChatSession {
	return ChatSession{State: StateIdle}
}

// Reset returns the session to Idle and drops every draft.
func (s *ChatSession) Reset() {
	*s = NewChatSession()
}

// IsIdle reports whether no wizard is active.
func (s ChatSession) IsIdle() bool {
	return s.State == StateIdle || s.State == ""
}

// SetEditing records the record being edited.
func (s *ChatSession) SetEditing(kind models.RecordKind, id int64) {
	s.EditingRecordID = &id
	s.EditingRecordKind = &kind
}

// Clone returns a deep copy.
func (s ChatSession) Clone() ChatSession {
	out := ChatSession{State: s.State}
	if s.DraftIncome != nil {
		d := *s.DraftIncome
		out.DraftIncome = &d
	}
	if s.DraftExpense != nil {
		d := *s.DraftExpense
		out.DraftExpense = &d
	}
	if s.EditingRecordID != nil {
		id := *s.EditingRecordID
		out.EditingRecordID = &id
	}
	if s.EditingRecordKind != nil {
		k := *s.EditingRecordKind
		out.EditingRecordKind = &k
	}
	return out
}

// Validate checks the draft and editing invariants.
func (s ChatSession) Validate() error {
	if s.DraftIncome != nil && s.DraftExpense != nil {
		return errors.New("both income and expense drafts are populated")
	}
	if (s.State.IsIncome() && s.DraftExpense != nil) || (s.State.IsExpense() && s.DraftIncome != nil) {
		return fmt.Errorf("draft does not match wizard state %q", s.State)
	}
	if s.EditingRecordID != nil && !s.State.IsEditing() {
		return fmt.Errorf("editing record set outside edit states (state %q)", s.State)
	}
	if s.IsIdle() && (s.DraftIncome != nil || s.DraftExpense != nil) {
		return errors.New("idle session carries a draft")
	}
	return nil
}

// ListingContext maps the display indices of the last rendered list back to
// record ids. It is replaced wholesale on every render. IndexToID[i-1] is the
// record shown at display index i.
type ListingContext struct {
	RecordKind models.RecordKind `json:"record_kind"`
	Year       int               `json:"year"`
	Month      int               `json:"month"`
	Page       int               `json:"page"`
	IndexToID  []int64           `json:"index_to_id"`
}

// NewListingContext builds a listing context owning a copy of ids.
func NewListingContext(kind models.RecordKind, year, month, page int, ids []int64) *ListingContext {
	return &ListingContext{
		RecordKind: kind,
		Year:       year,
		Month:      month,
		Page:       page,
		IndexToID:  append([]int64(nil), ids...),
	}
}

// Resolve returns the record id shown at a 1-based display index.
func (l *ListingContext) Resolve(index int) (int64, bool) {
	if l == nil || index < 1 || index > len(l.IndexToID) {
		return 0, false
	}
	return l.IndexToID[index-1], true
}

// Len returns the number of indexed records.
func (l *ListingContext) Len() int {
	if l == nil {
		return 0
	}
	return len(l.IndexToID)
}

// Chat bundles every piece of per-chat state guarded by the chat's lock.
// UserID is the backend user bound to the chat, 0 when not yet known.
type Chat struct {
	ChatID  int64
	Session ChatSession
	Listing *ListingContext
	UserID  int64
}

// ReplaceListing installs a new listing context, discarding the old one.
func (c *Chat) ReplaceListing(l *ListingContext) {
	c.Listing = l
}
