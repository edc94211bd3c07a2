package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/finance-bot/internal/apiclient"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

const listingDateLayout = "02.01"

var errNoBackendUser = errors.New("chat has no backend user")

// ListingBackend is the subset of the backend used to render listings.
type ListingBackend interface {
	ListIncomesByMonth(ctx context.Context, userID int64, year, month, page int) (appmodels.Page[appmodels.Income], error)
	ListExpensesByMonth(ctx context.Context, userID int64, year, month, page int) (appmodels.Page[appmodels.Expense], error)
}

var _ ListingBackend = (apiclient.Backend)(nil)

// Listing is one rendered page of records. IDs are in display order.
type Listing struct {
	Text       string
	Kind       appmodels.RecordKind
	Year       int
	Month      int
	Page       int
	TotalPages int
	IDs        []int64
}

func (l Listing) pages() appmodels.Page[int64] {
	return appmodels.Page[int64]{Items: l.IDs, Page: l.Page, TotalPages: l.TotalPages}
}

// Lister renders monthly listings and owns the display-index mapping.
type Lister struct {
	backend ListingBackend
}

// NewLister creates a Lister.
func NewLister(backend ListingBackend) *Lister {
	return &Lister{backend: backend}
}

// Render fetches one page of records and installs a fresh listing context on
// chat. On error the previous context is left untouched.
func (l *Lister) Render(ctx context.Context, chat *session.Chat, kind appmodels.RecordKind, year, month, page int) (Listing, error) {
	if chat.UserID == 0 {
		return Listing{}, errNoBackendUser
	}
	if month < 1 || month > 12 {
		return Listing{}, fmt.Errorf("invalid month %d", month)
	}

	fetched, err := l.fetch(ctx, chat.UserID, kind, year, month, page)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to list %ss for %d-%02d: %w", kind, year, month, err)
	}

	records, totalPages := fetched.Items, fetched.TotalPages
	ids := make([]int64, 0, len(records))
	lines := make([]string, 0, len(records))
	for i, rec := range records {
		ids = append(ids, rec.ID)
		lines = append(lines, appmodels.EscapeHTML(FormatRecordLine(i+1, rec)))
	}

	chat.ReplaceListing(session.NewListingContext(kind, year, month, page, ids))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s за %s %d</b>", kindTitle(kind), monthNames[month-1], year)
	if totalPages > 1 {
		fmt.Fprintf(&sb, "\nСтраница %d из %d", page+1, totalPages)
	}
	sb.WriteString("\n\n")
	if len(lines) == 0 {
		sb.WriteString("Записей нет.")
	} else {
		sb.WriteString(strings.Join(lines, "\n"))
	}

	return Listing{
		Text:       sb.String(),
		Kind:       kind,
		Year:       year,
		Month:      month,
		Page:       page,
		TotalPages: totalPages,
		IDs:        ids,
	}, nil
}

func (l *Lister) fetch(ctx context.Context, userID int64, kind appmodels.RecordKind, year, month, page int) (appmodels.Page[appmodels.Record], error) {
	if kind == appmodels.KindIncome {
		p, err := l.backend.ListIncomesByMonth(ctx, userID, year, month, page)
		if err != nil {
			return appmodels.Page[appmodels.Record]{}, err
		}
		return recordPage(p, appmodels.RecordFromIncome), nil
	}

	p, err := l.backend.ListExpensesByMonth(ctx, userID, year, month, page)
	if err != nil {
		return appmodels.Page[appmodels.Record]{}, err
	}
	return recordPage(p, appmodels.RecordFromExpense), nil
}

func recordPage[T any](p appmodels.Page[T], toRecord func(T) appmodels.Record) appmodels.Page[appmodels.Record] {
	records := make([]appmodels.Record, 0, len(p.Items))
	for _, item := range p.Items {
		records = append(records, toRecord(item))
	}
	return appmodels.Page[appmodels.Record]{
		Items:      records,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
	}
}

// Resolve returns the record id shown at a display index of the chat's
// latest listing.
func (l *Lister) Resolve(chat *session.Chat, index int) (int64, bool) {
	return chat.Listing.Resolve(index)
}

// FormatRecordLine renders one listing entry, e.g.
// "3. • 50 000 ₽ | 15.01\n Зарплата • ООО Ромашка".
func FormatRecordLine(index int, r appmodels.Record) string {
	line := fmt.Sprintf("%d. • %s | %s\n %s", index, appmodels.FormatAmount(r.Amount), r.Date.Format(listingDateLayout), r.Category)
	if extra := r.Extra(); extra != "" {
		line += " • " + extra
	}
	return line
}
