package bot

import (
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/command"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/wizard"
)

// Fixed inline callback actions.
const (
	callbackSummary      = "summary"
	callbackMainMenu     = "main_menu"
	callbackEditList     = "edit_list"
	callbackDeletePrefix = "delete:"
)

func mainMenuKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: command.LabelAddIncome}, {Text: command.LabelAddExpense}},
			{{Text: command.LabelListIncomes}, {Text: command.LabelListExpenses}},
			{{Text: command.LabelSummary}},
		},
		ResizeKeyboard: true,
	}
}

// promptMarkup builds the reply keyboard of a wizard prompt. Prompts without
// buttons keep the current keyboard.
func promptMarkup(p wizard.Prompt) models.ReplyMarkup {
	if p.MainMenu {
		return mainMenuKeyboard()
	}
	if len(p.Keyboard) == 0 {
		return nil
	}

	rows := make([][]models.KeyboardButton, 0, len(p.Keyboard))
	for _, labels := range p.Keyboard {
		row := make([]models.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, models.KeyboardButton{Text: label})
		}
		rows = append(rows, row)
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}

func inlineButton(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

// inlineGrid lays buttons out perRow to a row.
func inlineGrid(buttons []models.InlineKeyboardButton, perRow int) [][]models.InlineKeyboardButton {
	var rows [][]models.InlineKeyboardButton
	for start := 0; start < len(buttons); start += perRow {
		end := min(start+perRow, len(buttons))
		rows = append(rows, buttons[start:end])
	}
	return rows
}

func summaryInlineKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{inlineButton("📈 Доходы", string(appmodels.KindIncome)), inlineButton("📉 Расходы", string(appmodels.KindExpense))},
			{inlineButton("🏠 Главное меню", callbackMainMenu)},
		},
	}
}
