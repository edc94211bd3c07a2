package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
	"gitlab.com/yelinaung/finance-bot/internal/wizard"
)

var errQuickEntryUsage = errors.New("expected <amount> <category> [text]")

const helpText = `📚 <b>Как пользоваться ботом</b>

<b>Кнопки меню:</b>
• <b>➕ Доход</b> / <b>➖ Расход</b> - пошаговое добавление записи
• <b>📈 Мои доходы</b> / <b>📉 Мои расходы</b> - списки по месяцам, редактирование и удаление
• <b>📊 Сводка</b> - итоги текущего месяца с диаграммой

<b>Быстрые команды:</b>
• <code>/income &lt;сумма&gt; &lt;категория&gt; [источник]</code> - доход за сегодня
• <code>/expense &lt;сумма&gt; &lt;категория&gt; [описание]</code> - расход за сегодня
• <code>/summary</code> - сводка за месяц
• <code>/cancel</code> - отменить текущее действие

Во время ввода доступны кнопки «Назад», «Пропустить» и «Отмена».`

const (
	msgQuickIncomeUsage  = "Формат: <code>/income &lt;сумма&gt; &lt;категория&gt; [источник]</code>\nНапример: <code>/income 50000 Зарплата ООО Ромашка</code>"
	msgQuickExpenseUsage = "Формат: <code>/expense &lt;сумма&gt; &lt;категория&gt; [описание]</code>\nНапример: <code>/expense 1500 Продукты молоко и хлеб</code>"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// splitCommand returns the lower-cased /command name of text and its
// arguments. Text without a leading slash has no command.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	token := strings.Fields(text)[0]
	name, _, _ := strings.Cut(token, "@")
	return strings.ToLower(name), extractCommandArgs(text, name)
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(name string) string {
	if name == "" {
		return ""
	}
	return ", " + appmodels.EscapeHTML(name)
}

func startText(name string) string {
	return fmt.Sprintf(`👋 Здравствуйте%s!

Я помогу вести учёт доходов и расходов.

Нажмите <b>➕ Доход</b> или <b>➖ Расход</b>, чтобы добавить запись, или откройте списки и сводку кнопками ниже.

Все команды: /help`, formatGreeting(name))
}

// quickEntry is a parsed single-shot /income or /expense command.
type quickEntry struct {
	amount   decimal.Decimal
	category string
	extra    string
}

// parseQuickEntry parses "<amount> <category> [text]". The amount is a single
// token; everything after the category is the optional text.
func parseQuickEntry(args string) (quickEntry, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return quickEntry{}, errQuickEntryUsage
	}

	amount, err := wizard.ParseAmount(fields[0])
	if err != nil {
		return quickEntry{}, err
	}

	return quickEntry{
		amount:   amount,
		category: fields[1],
		extra:    strings.Join(fields[2:], " "),
	}, nil
}

func (d *Dispatcher) quickIncome(ctx context.Context, tg TelegramAPI, chat *session.Chat, msg TextMessage, args string) {
	entry, err := parseQuickEntry(args)
	if err != nil {
		d.sendText(ctx, tg, chat.ChatID, msgQuickIncomeUsage, mainMenuKeyboard())
		return
	}

	d.commit(ctx, tg, chat, msg.DisplayName, wizard.EffectCommitIncome, &wizard.Commit{
		Kind: appmodels.KindIncome,
		Income: &session.IncomeDraft{
			Amount:   entry.amount,
			Date:     d.today(),
			Category: entry.category,
			Source:   entry.extra,
		},
	})
}

func (d *Dispatcher) quickExpense(ctx context.Context, tg TelegramAPI, chat *session.Chat, msg TextMessage, args string) {
	entry, err := parseQuickEntry(args)
	if err != nil {
		d.sendText(ctx, tg, chat.ChatID, msgQuickExpenseUsage, mainMenuKeyboard())
		return
	}

	d.commit(ctx, tg, chat, msg.DisplayName, wizard.EffectCommitExpense, &wizard.Commit{
		Kind: appmodels.KindExpense,
		Expense: &session.ExpenseDraft{
			Amount:      entry.amount,
			Date:        d.today(),
			Category:    entry.category,
			Description: entry.extra,
		},
	})
}
