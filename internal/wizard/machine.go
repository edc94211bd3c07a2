// Package wizard implements the multi-step income, expense and edit flows as
// pure state machines over session.ChatSession.
package wizard

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/command"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

// Effect tells the caller what to do after a transition.
type Effect int

const (
	// EffectNone means the prompt is the only output.
	EffectNone Effect = iota
	// EffectCancelled means the wizard was cancelled and the session is Idle.
	EffectCancelled
	// EffectCommitIncome means Result.Commit holds a new income to create.
	EffectCommitIncome
	// EffectCommitExpense means Result.Commit holds a new expense to create.
	EffectCommitExpense
	// EffectCommitEdit means Result.Commit holds an update of an existing record.
	EffectCommitEdit
	// EffectResolveIndex means Result.Index must be resolved against the
	// chat's listing and passed to BeginEdit.
	EffectResolveIndex
)

func (e Effect) String() string {
	switch e {
	case EffectCancelled:
		return "cancelled"
	case EffectCommitIncome:
		return "commit_income"
	case EffectCommitExpense:
		return "commit_expense"
	case EffectCommitEdit:
		return "commit_edit"
	case EffectResolveIndex:
		return "resolve_index"
	default:
		return "none"
	}
}

// IsCommit reports whether the effect carries a backend write.
func (e Effect) IsCommit() bool {
	return e == EffectCommitIncome || e == EffectCommitExpense || e == EffectCommitEdit
}

// Commit is the single backend write produced by a finished wizard. RecordID
// is set for edits only.
type Commit struct {
	Kind     models.RecordKind
	Income   *session.IncomeDraft
	Expense  *session.ExpenseDraft
	RecordID int64
}

// Result is the outcome of one Step. Rejected reports an input that failed
// validation and left the state unchanged.
type Result struct {
	Prompt   Prompt
	Effect   Effect
	Commit   *Commit
	Index    int
	Rejected bool
}

type fieldKind int

const (
	fieldAmount fieldKind = iota
	fieldDate
	fieldText
	fieldIndex
)

// stepDef is one row of the transition table.
type stepDef struct {
	prev     session.State
	next     session.State
	optional bool
	field    fieldKind
	set      func(s *session.ChatSession, v value)
}

type value struct {
	amount decimal.Decimal
	date   time.Time
	text   string
}

// terminal marks the last state of a wizard.
const terminal session.State = ""

var transitions = map[session.State]stepDef{
	session.StateIncomeAmount: {
		prev: terminal, next: session.StateIncomeDate, field: fieldAmount,
		set: func(s *session.ChatSession, v value) { s.DraftIncome.Amount = v.amount },
	},
	session.StateIncomeDate: {
		prev: session.StateIncomeAmount, next: session.StateIncomeCategory, field: fieldDate,
		set: func(s *session.ChatSession, v value) { s.DraftIncome.Date = v.date },
	},
	session.StateIncomeCategory: {
		prev: session.StateIncomeDate, next: session.StateIncomeSource, field: fieldText,
		set: func(s *session.ChatSession, v value) { s.DraftIncome.Category = v.text },
	},
	session.StateIncomeSource: {
		prev: session.StateIncomeCategory, next: session.StateIncomeDescription, field: fieldText, optional: true,
		set: func(s *session.ChatSession, v value) { s.DraftIncome.Source = v.text },
	},
	session.StateIncomeDescription: {
		prev: session.StateIncomeSource, next: terminal, field: fieldText, optional: true,
		set: func(s *session.ChatSession, v value) { s.DraftIncome.Description = v.text },
	},

	session.StateExpenseAmount: {
		prev: terminal, next: session.StateExpenseDate, field: fieldAmount,
		set: func(s *session.ChatSession, v value) { s.DraftExpense.Amount = v.amount },
	},
	session.StateExpenseDate: {
		prev: session.StateExpenseAmount, next: session.StateExpenseCategory, field: fieldDate,
		set: func(s *session.ChatSession, v value) { s.DraftExpense.Date = v.date },
	},
	session.StateExpenseCategory: {
		prev: session.StateExpenseDate, next: session.StateExpenseDescription, field: fieldText,
		set: func(s *session.ChatSession, v value) { s.DraftExpense.Category = v.text },
	},
	session.StateExpenseDescription: {
		prev: session.StateExpenseCategory, next: terminal, field: fieldText, optional: true,
		set: func(s *session.ChatSession, v value) { s.DraftExpense.Description = v.text },
	},

	session.StateEditChooseIndex: {
		prev: terminal, next: session.StateEditAmount, field: fieldIndex,
	},
	session.StateEditAmount: {
		prev: session.StateEditChooseIndex, next: session.StateEditDate, field: fieldAmount, optional: true,
		set: func(s *session.ChatSession, v value) {
			if s.DraftIncome != nil {
				s.DraftIncome.Amount = v.amount
			} else {
				s.DraftExpense.Amount = v.amount
			}
		},
	},
	session.StateEditDate: {
		prev: session.StateEditAmount, next: session.StateEditCategory, field: fieldDate, optional: true,
		set: func(s *session.ChatSession, v value) {
			if s.DraftIncome != nil {
				s.DraftIncome.Date = v.date
			} else {
				s.DraftExpense.Date = v.date
			}
		},
	},
	session.StateEditCategory: {
		prev: session.StateEditDate, next: terminal, field: fieldText, optional: true,
		set: func(s *session.ChatSession, v value) {
			if s.DraftIncome != nil {
				s.DraftIncome.Category = v.text
			} else {
				s.DraftExpense.Category = v.text
			}
		},
	},
}

// Machine drives every wizard. It holds no per-chat state.
type Machine struct {
	now func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the clock used for the "today" token.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// New creates a Machine.
func New(opts ...Option) *Machine {
	m := &Machine{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartIncome begins the income wizard, discarding any previous wizard.
func (m *Machine) StartIncome(s *session.ChatSession) Prompt {
	s.Reset()
	s.State = session.StateIncomeAmount
	s.DraftIncome = &session.IncomeDraft{}
	return promptFor(s)
}

// StartExpense begins the expense wizard, discarding any previous wizard.
func (m *Machine) StartExpense(s *session.ChatSession) Prompt {
	s.Reset()
	s.State = session.StateExpenseAmount
	s.DraftExpense = &session.ExpenseDraft{}
	return promptFor(s)
}

// StartEdit begins the edit wizard at index selection.
func (m *Machine) StartEdit(s *session.ChatSession) Prompt {
	s.Reset()
	s.State = session.StateEditChooseIndex
	return promptFor(s)
}

// BeginEdit seeds the draft from the record resolved for the chosen index and
// moves on to the amount step.
func (m *Machine) BeginEdit(s *session.ChatSession, r models.Record) Prompt {
	s.Reset()
	s.State = session.StateEditAmount
	s.SetEditing(r.Kind, r.ID)
	switch r.Kind {
	case models.KindIncome:
		s.DraftIncome = &session.IncomeDraft{
			Amount:      r.Amount,
			Date:        r.Date,
			Category:    r.Category,
			Source:      r.Source,
			Description: r.Description,
		}
	default:
		s.DraftExpense = &session.ExpenseDraft{
			Amount:      r.Amount,
			Date:        r.Date,
			Category:    r.Category,
			Description: r.Description,
		}
	}
	return promptFor(s)
}

// AbortEdit resets the session after an unresolvable index or record.
func (m *Machine) AbortEdit(s *session.ChatSession, p Prompt) Prompt {
	s.Reset()
	p.MainMenu = true
	return p
}

// RejectIndex re-prompts index selection after a display index did not resolve.
func (m *Machine) RejectIndex(s *session.ChatSession) Result {
	return Result{Prompt: withError(msgInvalidIndex, promptFor(s)), Rejected: true}
}

// Step applies one input to an active wizard. Precedence is Cancel, Back,
// Skip, then the field parser of the current state.
func (m *Machine) Step(s *session.ChatSession, input string) Result {
	def, ok := transitions[s.State]
	if !ok {
		s.Reset()
		return Result{Prompt: idlePrompt(msgCancelled), Effect: EffectCancelled}
	}

	switch command.Classify(input) {
	case command.TokenCancel:
		s.Reset()
		return Result{Prompt: idlePrompt(msgCancelled), Effect: EffectCancelled}

	case command.TokenBack:
		if def.prev == terminal {
			return Result{Prompt: promptFor(s)}
		}
		if def.prev == session.StateEditChooseIndex {
			s.Reset()
		}
		s.State = def.prev
		return Result{Prompt: promptFor(s)}

	case command.TokenSkip:
		if !def.optional {
			return Result{Prompt: withError(msgRequiredField, promptFor(s)), Rejected: true}
		}
		return m.advance(s, def)
	}

	v, errMsg := m.parse(def.field, input)
	if errMsg != "" {
		return Result{Prompt: withError(errMsg, promptFor(s)), Rejected: true}
	}

	if def.field == fieldIndex {
		return Result{Effect: EffectResolveIndex, Index: int(v.amount.IntPart())}
	}

	def.set(s, v)
	return m.advance(s, def)
}

func (m *Machine) advance(s *session.ChatSession, def stepDef) Result {
	if def.next != terminal {
		s.State = def.next
		return Result{Prompt: promptFor(s)}
	}

	effect, c := commitFrom(s)
	s.Reset()
	return Result{Effect: effect, Commit: c}
}

func (m *Machine) parse(field fieldKind, input string) (value, string) {
	switch field {
	case fieldAmount:
		amount, err := ParseAmount(input)
		if err != nil {
			return value{}, msgInvalidAmount
		}
		return value{amount: amount}, ""

	case fieldDate:
		date, err := ParseDate(input, m.now())
		if err != nil {
			return value{}, msgInvalidDate
		}
		return value{date: date}, ""

	case fieldIndex:
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || n < 1 {
			return value{}, msgInvalidIndex
		}
		return value{amount: decimal.NewFromInt(int64(n))}, ""

	default:
		text, ok := parseText(input)
		if !ok {
			return value{}, msgEmptyText
		}
		return value{text: text}, ""
	}
}

// commitFrom snapshots the finished draft before the session is reset.
func commitFrom(s *session.ChatSession) (Effect, *Commit) {
	c := &Commit{}
	if s.DraftIncome != nil {
		d := *s.DraftIncome
		c.Kind = models.KindIncome
		c.Income = &d
	} else {
		d := *s.DraftExpense
		c.Kind = models.KindExpense
		c.Expense = &d
	}

	if s.State.IsEditing() && s.EditingRecordID != nil {
		c.RecordID = *s.EditingRecordID
		return EffectCommitEdit, c
	}
	if c.Kind == models.KindIncome {
		return EffectCommitIncome, c
	}
	return EffectCommitExpense, c
}

type editFields struct {
	amount   decimal.Decimal
	date     time.Time
	category string
}

func editValues(s *session.ChatSession) editFields {
	switch {
	case s.DraftIncome != nil:
		return editFields{amount: s.DraftIncome.Amount, date: s.DraftIncome.Date, category: s.DraftIncome.Category}
	case s.DraftExpense != nil:
		return editFields{amount: s.DraftExpense.Amount, date: s.DraftExpense.Date, category: s.DraftExpense.Category}
	}
	return editFields{}
}
