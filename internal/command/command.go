// Package command maps free-form button labels and typed text to canonical intents.
package command

import (
	"strings"
)

// Menu button labels shared by keyboards and the normalizer.
const (
	LabelAddIncome    = "➕ Доход"
	LabelAddExpense   = "➖ Расход"
	LabelListIncomes  = "📈 Мои доходы"
	LabelListExpenses = "📉 Мои расходы"
	LabelSummary      = "📊 Сводка"
	LabelCancel       = "❌ Отмена"
	LabelBack         = "⬅️ Назад"
	LabelSkip         = "⏭ Пропустить"
	LabelToday        = "📅 Сегодня"
	plainCancel       = "Отмена"
	plainBack         = "Назад"
	plainSkip         = "пропустить"
	plainToday        = "сегодня"
	englishCancel     = "Cancel"
	englishBack       = "Back"
	englishSkip       = "skip"
	englishToday      = "today"
	slashCancel       = "/cancel"
	emojiSkipPrefix   = "⏭"
	emojiTodayPrefix  = "📅"
)

// IntentKind enumerates canonical intents.
type IntentKind int

const (
	Literal IntentKind = iota
	StartWizardIncome
	StartWizardExpense
	ListIncomes
	ListExpenses
	ShowSummary
)

func (k IntentKind) String() string {
	switch k {
	case StartWizardIncome:
		return "start_wizard_income"
	case StartWizardExpense:
		return "start_wizard_expense"
	case ListIncomes:
		return "list_incomes"
	case ListExpenses:
		return "list_expenses"
	case ShowSummary:
		return "show_summary"
	default:
		return "literal"
	}
}

// Intent is the normalized form of a text message. Text holds the raw input
// for Literal intents.
type Intent struct {
	Kind IntentKind
	Text string
}

var menuIntents = map[string]IntentKind{
	LabelAddIncome:    StartWizardIncome,
	"Доход":           StartWizardIncome,
	"Добавить доход":  StartWizardIncome,
	LabelAddExpense:   StartWizardExpense,
	"Расход":          StartWizardExpense,
	"Добавить расход": StartWizardExpense,
	LabelListIncomes:  ListIncomes,
	"Мои доходы":      ListIncomes,
	LabelListExpenses: ListExpenses,
	"Мои расходы":     ListExpenses,
	LabelSummary:      ShowSummary,
	"Сводка":          ShowSummary,
}

// Normalize maps a known menu label to its intent. Matching is exact; anything
// unrecognized, slash commands included, falls through to Literal.
func Normalize(raw string) Intent {
	if kind, ok := menuIntents[strings.TrimSpace(raw)]; ok {
		return Intent{Kind: kind}
	}
	return Intent{Kind: Literal, Text: raw}
}

// Token classifies wizard input shared by every wizard state.
type Token int

const (
	TokenText Token = iota
	TokenCancel
	TokenBack
	TokenSkip
)

func (t Token) String() string {
	switch t {
	case TokenCancel:
		return "cancel"
	case TokenBack:
		return "back"
	case TokenSkip:
		return "skip"
	default:
		return "text"
	}
}

// Classify recognizes the Cancel, Back and Skip tokens. Skip is matched
// case-insensitively; Cancel and Back are exact labels.
func Classify(raw string) Token {
	text := strings.TrimSpace(raw)
	switch text {
	case LabelCancel, plainCancel, englishCancel, slashCancel:
		return TokenCancel
	case LabelBack, plainBack, englishBack:
		return TokenBack
	}
	if matchFold(text, emojiSkipPrefix, plainSkip, englishSkip) {
		return TokenSkip
	}
	return TokenText
}

// IsToday reports whether the text is the "today" token, in any case.
func IsToday(raw string) bool {
	return matchFold(strings.TrimSpace(raw), emojiTodayPrefix, plainToday, englishToday)
}

// matchFold compares text against words case-insensitively, ignoring an
// optional emoji prefix.
func matchFold(text, emoji string, words ...string) bool {
	text = strings.TrimSpace(strings.TrimPrefix(text, emoji))
	for _, w := range words {
		if strings.EqualFold(text, w) {
			return true
		}
	}
	return false
}
