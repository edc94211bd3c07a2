package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

// Navigation depths of a NavToken.
const (
	depthKind = iota + 1
	depthYear
	depthMonth
	depthPage
)

const (
	minNavYear = 1900
	maxNavYear = 2999

	yearsPerRow   = 3
	monthsPerRow  = 3
	deletesPerRow = 5
)

var monthShortNames = [12]string{
	"Янв", "Фев", "Мар", "Апр", "Май", "Июн",
	"Июл", "Авг", "Сен", "Окт", "Ноя", "Дек",
}

var monthNames = [12]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

// NavToken is a position in the kind → year → month → page menu tree,
// encoded in callback data as kind[:year[:month[:page]]]. Depth counts the
// encoded parts.
type NavToken struct {
	Kind  appmodels.RecordKind
	Year  int
	Month int
	Page  int
	Depth int
}

// ParseNavToken decodes callback data. Anything that is not a well-formed
// token is rejected so the caller can try other actions.
func ParseNavToken(data string) (NavToken, bool) {
	parts := strings.Split(data, ":")
	if len(parts) > depthPage {
		return NavToken{}, false
	}

	tok := NavToken{Kind: appmodels.RecordKind(parts[0]), Depth: len(parts)}
	if tok.Kind != appmodels.KindIncome && tok.Kind != appmodels.KindExpense {
		return NavToken{}, false
	}

	var ok bool
	if tok.Depth >= depthYear {
		if tok.Year, ok = parseDigits(parts[1]); !ok || tok.Year < minNavYear || tok.Year > maxNavYear {
			return NavToken{}, false
		}
	}
	if tok.Depth >= depthMonth {
		if tok.Month, ok = parseDigits(parts[2]); !ok || tok.Month < 1 || tok.Month > 12 {
			return NavToken{}, false
		}
	}
	if tok.Depth == depthPage {
		if tok.Page, ok = parseDigits(parts[3]); !ok {
			return NavToken{}, false
		}
	}
	return tok, true
}

// parseDigits accepts unsigned decimal numbers only.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String encodes the token back into callback data.
func (t NavToken) String() string {
	var sb strings.Builder
	sb.WriteString(string(t.Kind))
	if t.Depth >= depthYear {
		fmt.Fprintf(&sb, ":%d", t.Year)
	}
	if t.Depth >= depthMonth {
		fmt.Fprintf(&sb, ":%d", t.Month)
	}
	if t.Depth >= depthPage {
		fmt.Fprintf(&sb, ":%d", t.Page)
	}
	return sb.String()
}

func yearToken(kind appmodels.RecordKind, year int) NavToken {
	return NavToken{Kind: kind, Year: year, Depth: depthYear}
}

func pageToken(kind appmodels.RecordKind, year, month, page int) NavToken {
	return NavToken{Kind: kind, Year: year, Month: month, Page: page, Depth: depthPage}
}

// Menu is an inline menu shown by editing the message that carried the
// pressed button.
type Menu struct {
	Text     string
	Keyboard *models.InlineKeyboardMarkup
}

func kindTitle(kind appmodels.RecordKind) string {
	if kind == appmodels.KindIncome {
		return "📈 Доходы"
	}
	return "📉 Расходы"
}

// handleNavigation renders the menu for a decoded token. Month-level tokens
// render a listing, which replaces the chat's listing context.
func (d *Dispatcher) handleNavigation(ctx context.Context, chat *session.Chat, tok NavToken) (*Menu, error) {
	switch tok.Depth {
	case depthKind:
		return d.yearsMenu(tok.Kind), nil
	case depthYear:
		return monthsMenu(tok.Kind, tok.Year), nil
	}

	listing, err := d.lister.Render(ctx, chat, tok.Kind, tok.Year, tok.Month, tok.Page)
	if err != nil {
		return nil, err
	}
	return listingMenu(listing), nil
}

func (d *Dispatcher) yearsMenu(kind appmodels.RecordKind) *Menu {
	buttons := make([]models.InlineKeyboardButton, 0, len(d.years))
	for _, year := range d.years {
		buttons = append(buttons, inlineButton(strconv.Itoa(year), yearToken(kind, year).String()))
	}

	rows := inlineGrid(buttons, yearsPerRow)
	rows = append(rows, []models.InlineKeyboardButton{inlineButton("🏠 Главное меню", callbackMainMenu)})

	return &Menu{
		Text:     fmt.Sprintf("<b>%s</b>\n\nВыберите год:", kindTitle(kind)),
		Keyboard: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	}
}

func monthsMenu(kind appmodels.RecordKind, year int) *Menu {
	buttons := make([]models.InlineKeyboardButton, 0, len(monthShortNames))
	for i, name := range monthShortNames {
		tok := NavToken{Kind: kind, Year: year, Month: i + 1, Depth: depthMonth}
		buttons = append(buttons, inlineButton(name, tok.String()))
	}

	rows := inlineGrid(buttons, monthsPerRow)
	rows = append(rows, []models.InlineKeyboardButton{
		inlineButton("⬅️ К годам", NavToken{Kind: kind, Depth: depthKind}.String()),
	})

	return &Menu{
		Text:     fmt.Sprintf("<b>%s за %d</b>\n\nВыберите месяц:", kindTitle(kind), year),
		Keyboard: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	}
}

func listingMenu(l Listing) *Menu {
	var rows [][]models.InlineKeyboardButton

	if p := l.pages(); p.TotalPages > 1 {
		var pager []models.InlineKeyboardButton
		if p.HasPrev() {
			pager = append(pager, inlineButton("◀️", pageToken(l.Kind, l.Year, l.Month, l.Page-1).String()))
		}
		if p.HasNext() {
			pager = append(pager, inlineButton("▶️", pageToken(l.Kind, l.Year, l.Month, l.Page+1).String()))
		}
		if len(pager) > 0 {
			rows = append(rows, pager)
		}
	}

	if len(l.IDs) > 0 {
		deletes := make([]models.InlineKeyboardButton, 0, len(l.IDs))
		for i, id := range l.IDs {
			deletes = append(deletes, inlineButton(fmt.Sprintf("🗑 %d", i+1), callbackDeletePrefix+strconv.FormatInt(id, 10)))
		}
		rows = append(rows, inlineGrid(deletes, deletesPerRow)...)
		rows = append(rows, []models.InlineKeyboardButton{inlineButton("✏️ Редактировать", callbackEditList)})
	}

	rows = append(rows, []models.InlineKeyboardButton{
		inlineButton("⬅️ К месяцам", yearToken(l.Kind, l.Year).String()),
	})

	return &Menu{
		Text:     l.Text,
		Keyboard: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	}
}
