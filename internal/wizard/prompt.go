package wizard

import (
	"fmt"
	"strings"

	"gitlab.com/yelinaung/finance-bot/internal/command"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

// Prompt is an outgoing message. Keyboard holds rows of reply-button labels;
// MainMenu asks the transport to show the main menu instead.
type Prompt struct {
	Text     string
	Keyboard [][]string
	MainMenu bool
}

const (
	msgCancelled      = "🚫 Действие отменено."
	msgInvalidAmount  = "❌ Некорректная сумма. Введите положительное число, например <code>1500</code> или <code>1 500,50</code>."
	msgInvalidDate    = "❌ Некорректная дата. Используйте формат <code>ДД.ММ.ГГГГ</code> или нажмите «Сегодня»."
	msgEmptyText      = "❌ Значение не может быть пустым."
	msgRequiredField  = "⚠️ Это поле обязательное, его нельзя пропустить."
	msgInvalidIndex   = "❌ Нет записи с таким номером. Введите номер из последнего списка."
	msgCommitFailed   = "❌ Не удалось сохранить запись. Попробуйте ещё раз позже."
	msgEditNotFound   = "❌ Запись не найдена. Редактирование прервано."
	msgNoListingToUse = "📋 Сначала откройте список записей, затем нажмите «Редактировать»."
)

var (
	rowBackCancel = []string{command.LabelBack, command.LabelCancel}
	kbRequired    = [][]string{rowBackCancel}
	kbOptional    = [][]string{{command.LabelSkip}, rowBackCancel}
	kbDate        = [][]string{{command.LabelToday}, rowBackCancel}
	kbEditDate    = [][]string{{command.LabelToday, command.LabelSkip}, rowBackCancel}
)

func promptFor(s *session.ChatSession) Prompt {
	switch s.State {
	case session.StateIncomeAmount:
		return Prompt{Text: "💰 Введите сумму дохода, например <code>50000</code>:", Keyboard: kbRequired}
	case session.StateIncomeDate:
		return Prompt{Text: "📅 Введите дату дохода в формате <code>ДД.ММ.ГГГГ</code> или нажмите «Сегодня»:", Keyboard: kbDate}
	case session.StateIncomeCategory:
		return Prompt{Text: "🏷 Введите категорию дохода, например <i>Зарплата</i>:", Keyboard: kbRequired}
	case session.StateIncomeSource:
		return Prompt{Text: "🏢 Укажите источник дохода или нажмите «Пропустить»:", Keyboard: kbOptional}
	case session.StateIncomeDescription:
		return Prompt{Text: "📝 Добавьте описание или нажмите «Пропустить»:", Keyboard: kbOptional}

	case session.StateExpenseAmount:
		return Prompt{Text: "💸 Введите сумму расхода, например <code>1500</code>:", Keyboard: kbRequired}
	case session.StateExpenseDate:
		return Prompt{Text: "📅 Введите дату расхода в формате <code>ДД.ММ.ГГГГ</code> или нажмите «Сегодня»:", Keyboard: kbDate}
	case session.StateExpenseCategory:
		return Prompt{Text: "🏷 Введите категорию расхода, например <i>Продукты</i>:", Keyboard: kbRequired}
	case session.StateExpenseDescription:
		return Prompt{Text: "📝 Добавьте описание или нажмите «Пропустить»:", Keyboard: kbOptional}

	case session.StateEditChooseIndex:
		return Prompt{Text: "✏️ Введите номер записи из списка:", Keyboard: kbRequired}
	case session.StateEditAmount:
		return Prompt{
			Text:     fmt.Sprintf("💰 Текущая сумма: <b>%s</b>\nВведите новую сумму или нажмите «Пропустить»:", models.FormatAmountExact(editValues(s).amount)),
			Keyboard: kbOptional,
		}
	case session.StateEditDate:
		return Prompt{
			Text:     fmt.Sprintf("📅 Текущая дата: <b>%s</b>\nВведите новую дату или нажмите «Пропустить»:", editValues(s).date.Format(DateLayout)),
			Keyboard: kbEditDate,
		}
	case session.StateEditCategory:
		return Prompt{
			Text:     fmt.Sprintf("🏷 Текущая категория: <b>%s</b>\nВведите новую категорию или нажмите «Пропустить»:", models.EscapeHTML(editValues(s).category)),
			Keyboard: kbOptional,
		}
	}
	return idlePrompt(msgCancelled)
}

func idlePrompt(text string) Prompt {
	return Prompt{Text: text, MainMenu: true}
}

// withError prefixes the state's prompt with an error line.
func withError(msg string, p Prompt) Prompt {
	p.Text = msg + "\n\n" + p.Text
	return p
}

// IncomeConfirmation summarizes a saved income.
func IncomeConfirmation(d session.IncomeDraft) Prompt {
	var sb strings.Builder
	sb.WriteString("✅ <b>Доход сохранён</b>\n\n")
	fmt.Fprintf(&sb, "💰 Сумма: %s\n", models.FormatAmountExact(d.Amount))
	fmt.Fprintf(&sb, "📅 Дата: %s\n", d.Date.Format(DateLayout))
	fmt.Fprintf(&sb, "🏷 Категория: %s\n", models.EscapeHTML(d.Category))
	if d.Source != "" {
		fmt.Fprintf(&sb, "🏢 Источник: %s\n", models.EscapeHTML(d.Source))
	}
	if d.Description != "" {
		fmt.Fprintf(&sb, "📝 Описание: %s\n", models.EscapeHTML(d.Description))
	}
	return idlePrompt(strings.TrimRight(sb.String(), "\n"))
}

// ExpenseConfirmation summarizes a saved expense.
func ExpenseConfirmation(d session.ExpenseDraft) Prompt {
	var sb strings.Builder
	sb.WriteString("✅ <b>Расход сохранён</b>\n\n")
	fmt.Fprintf(&sb, "💸 Сумма: %s\n", models.FormatAmountExact(d.Amount))
	fmt.Fprintf(&sb, "📅 Дата: %s\n", d.Date.Format(DateLayout))
	fmt.Fprintf(&sb, "🏷 Категория: %s\n", models.EscapeHTML(d.Category))
	if d.Description != "" {
		fmt.Fprintf(&sb, "📝 Описание: %s\n", models.EscapeHTML(d.Description))
	}
	return idlePrompt(strings.TrimRight(sb.String(), "\n"))
}

// EditConfirmation summarizes an updated record.
func EditConfirmation(c Commit) Prompt {
	var p Prompt
	switch c.Kind {
	case models.KindIncome:
		p = IncomeConfirmation(*c.Income)
		p.Text = strings.Replace(p.Text, "Доход сохранён", "Доход обновлён", 1)
	default:
		p = ExpenseConfirmation(*c.Expense)
		p.Text = strings.Replace(p.Text, "Расход сохранён", "Расход обновлён", 1)
	}
	return p
}

// CommitFailed is shown when the backend rejects a commit.
func CommitFailed() Prompt {
	return idlePrompt(msgCommitFailed)
}

// EditRecordNotFound is shown when the chosen record cannot be fetched.
func EditRecordNotFound() Prompt {
	return idlePrompt(msgEditNotFound)
}

// NoListing is shown when editing is requested before any list was rendered.
func NoListing() Prompt {
	return idlePrompt(msgNoListingToUse)
}
