package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/apiclient"
	"gitlab.com/yelinaung/finance-bot/internal/command"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/session"
	"gitlab.com/yelinaung/finance-bot/internal/wizard"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/finance-bot/internal/bot"

const defaultAPITimeout = 10 * time.Second

// Routes reported in the bot.events counter.
const (
	routeWizard          = "wizard"
	routeStartIncome     = "start_income"
	routeStartExpense    = "start_expense"
	routeList            = "list"
	routeSummary         = "summary"
	routeStart           = "start"
	routeHelp            = "help"
	routeCancel          = "cancel"
	routeQuickIncome     = "quick_income"
	routeQuickExpense    = "quick_expense"
	routeUnknownText     = "unknown_text"
	routeNavigation      = "navigation"
	routeMainMenu        = "main_menu"
	routeDelete          = "delete"
	routeEditList        = "edit_list"
	routeUnknownCallback = "unknown_callback"
)

const (
	msgMainMenu        = "🏠 Главное меню"
	msgNothingToCancel = "Нечего отменять."
	msgNotUnderstood   = "🤔 Не понял сообщение. Воспользуйтесь кнопками меню или командой /help."
	msgBackendFailure  = "⚠️ Сервис временно недоступен. Попробуйте позже."
	msgUnknownAction   = "Неизвестное действие"
	msgDeleted         = "🗑 Запись удалена"
	msgRecordNotFound  = "Запись не найдена"
	msgActionFailed    = "Не удалось выполнить действие"
)

// UserResolver maps a chat to its backend user, registering it when needed.
type UserResolver interface {
	EnsureUser(ctx context.Context, chatID int64, displayName string) (appmodels.User, error)
}

// Dispatcher routes inbound events through the per-chat state machine. All
// work for one event, backend calls included, runs under the chat's lock.
type Dispatcher struct {
	store      *session.Store
	backend    apiclient.Backend
	users      UserResolver
	machine    *wizard.Machine
	lister     *Lister
	years      []int
	apiTimeout time.Duration
	location   *time.Location
	now        func() time.Time

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	events         metric.Int64Counter
	commits        metric.Int64Counter
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithUserResolver overrides the chat to user lookup. By default lookups go
// through an apiclient.CachedUsers over the backend.
func WithUserResolver(u UserResolver) DispatcherOption {
	return func(d *Dispatcher) {
		d.users = u
	}
}

// WithListingYears sets the years offered by the listing menu.
func WithListingYears(years []int) DispatcherOption {
	return func(d *Dispatcher) {
		d.years = append([]int(nil), years...)
	}
}

// WithAPITimeout bounds every backend call.
func WithAPITimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.apiTimeout = timeout
		}
	}
}

// WithLocation sets the timezone for "today" and the current month.
func WithLocation(loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) DispatcherOption {
	return func(d *Dispatcher) {
		d.meterProvider = mp
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracerProvider = tp
	}
}

// NewDispatcher creates a Dispatcher over the session store and backend.
func NewDispatcher(store *session.Store, backend apiclient.Backend, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:      store,
		backend:    backend,
		apiTimeout: defaultAPITimeout,
		location:   time.Local,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.users == nil {
		d.users = apiclient.NewCachedUsers(backend, 0)
	}
	if len(d.years) == 0 {
		current := d.now().In(d.location).Year()
		d.years = []int{current - 2, current - 1, current}
	}
	if d.meterProvider == nil {
		d.meterProvider = otel.GetMeterProvider()
	}
	if d.tracerProvider == nil {
		d.tracerProvider = otel.GetTracerProvider()
	}

	d.machine = wizard.New(wizard.WithClock(func() time.Time { return d.now().In(d.location) }))
	d.lister = NewLister(backend)
	d.tracer = d.tracerProvider.Tracer(instrumentationName)
	d.initMetrics()

	return d
}

func (d *Dispatcher) initMetrics() {
	meter := d.meterProvider.Meter(instrumentationName)

	var err error
	d.events, err = meter.Int64Counter("bot.events", metric.WithDescription("Inbound events by route"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create bot.events counter")
		d.events = noop.Int64Counter{}
	}

	d.commits, err = meter.Int64Counter("bot.wizard.commits", metric.WithDescription("Backend writes by kind and result"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create bot.wizard.commits counter")
		d.commits = noop.Int64Counter{}
	}
}

// HandleEvent processes one inbound event. Errors never escape; every failure
// ends in a user-visible reply.
func (d *Dispatcher) HandleEvent(ctx context.Context, tg TelegramAPI, ev Event) {
	ctx, span := d.tracer.Start(ctx, "bot.HandleEvent",
		trace.WithAttributes(attribute.String("event.type", ev.eventType())))
	defer span.End()

	chat, err := d.store.Acquire(ctx, ev.chat())
	if err != nil {
		logger.ForChat(ev.chat()).Warn().Err(err).Msg("Dropped event while waiting for chat lock")
		return
	}
	defer d.store.Release(ctx, chat)

	var route string
	switch e := ev.(type) {
	case TextMessage:
		route = d.handleText(ctx, tg, chat, e)
	case CallbackEvent:
		route = d.handleCallback(ctx, tg, chat, e)
	}

	span.SetAttributes(attribute.String("route", route))
	d.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", ev.eventType()),
		attribute.String("route", route),
	))
}

func (d *Dispatcher) handleText(ctx context.Context, tg TelegramAPI, chat *session.Chat, msg TextMessage) string {
	if !chat.Session.IsIdle() {
		d.stepWizard(ctx, tg, chat, msg)
		return routeWizard
	}

	switch command.Normalize(msg.Text).Kind {
	case command.StartWizardIncome:
		d.sendPrompt(ctx, tg, chat.ChatID, d.machine.StartIncome(&chat.Session))
		return routeStartIncome
	case command.StartWizardExpense:
		d.sendPrompt(ctx, tg, chat.ChatID, d.machine.StartExpense(&chat.Session))
		return routeStartExpense
	case command.ListIncomes:
		d.sendMenu(ctx, tg, chat.ChatID, d.yearsMenu(appmodels.KindIncome))
		return routeList
	case command.ListExpenses:
		d.sendMenu(ctx, tg, chat.ChatID, d.yearsMenu(appmodels.KindExpense))
		return routeList
	case command.ShowSummary:
		d.showSummary(ctx, tg, chat, msg.DisplayName)
		return routeSummary
	}

	return d.handleLiteral(ctx, tg, chat, msg)
}

func (d *Dispatcher) handleLiteral(ctx context.Context, tg TelegramAPI, chat *session.Chat, msg TextMessage) string {
	name, args := splitCommand(strings.TrimSpace(msg.Text))
	switch name {
	case "/start":
		d.sendText(ctx, tg, chat.ChatID, startText(msg.DisplayName), mainMenuKeyboard())
		return routeStart
	case "/help":
		d.sendText(ctx, tg, chat.ChatID, helpText, mainMenuKeyboard())
		return routeHelp
	case "/cancel":
		d.sendText(ctx, tg, chat.ChatID, msgNothingToCancel, mainMenuKeyboard())
		return routeCancel
	case "/summary":
		d.showSummary(ctx, tg, chat, msg.DisplayName)
		return routeSummary
	case "/income":
		d.quickIncome(ctx, tg, chat, msg, args)
		return routeQuickIncome
	case "/expense":
		d.quickExpense(ctx, tg, chat, msg, args)
		return routeQuickExpense
	}

	d.sendText(ctx, tg, chat.ChatID, msgNotUnderstood, mainMenuKeyboard())
	return routeUnknownText
}

func (d *Dispatcher) stepWizard(ctx context.Context, tg TelegramAPI, chat *session.Chat, msg TextMessage) {
	from := chat.Session.State
	res := d.machine.Step(&chat.Session, msg.Text)

	log := logger.ForChat(chat.ChatID)
	if res.Rejected {
		log.Debug().
			Str("state", string(from)).
			Str("input", logger.SanitizeText(msg.Text)).
			Msg("Wizard input rejected")
	}
	log.Debug().
		Str("from", string(from)).
		Str("to", string(chat.Session.State)).
		Str("effect", res.Effect.String()).
		Msg("Wizard step")

	switch {
	case res.Effect.IsCommit():
		d.commit(ctx, tg, chat, msg.DisplayName, res.Effect, res.Commit)
	case res.Effect == wizard.EffectResolveIndex:
		d.resolveIndex(ctx, tg, chat, res.Index)
	default:
		d.sendPrompt(ctx, tg, chat.ChatID, res.Prompt)
	}
}

// commit performs the single backend write of a finished wizard. The session
// is already Idle whatever the outcome.
func (d *Dispatcher) commit(ctx context.Context, tg TelegramAPI, chat *session.Chat, displayName string, effect wizard.Effect, c *wizard.Commit) {
	prompt, err := d.writeCommit(ctx, chat, displayName, effect, c)
	result := "ok"
	if err != nil {
		result = "error"
		d.recordFailure(ctx, chat.ChatID, err, "Failed to commit record")
		prompt = wizard.CommitFailed()
	}

	d.commits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", commitKind(effect, c)),
		attribute.String("result", result),
	))
	d.sendPrompt(ctx, tg, chat.ChatID, prompt)
}

func (d *Dispatcher) writeCommit(ctx context.Context, chat *session.Chat, displayName string, effect wizard.Effect, c *wizard.Commit) (wizard.Prompt, error) {
	if err := d.ensureUser(ctx, chat, displayName); err != nil {
		return wizard.Prompt{}, err
	}

	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	switch effect {
	case wizard.EffectCommitIncome:
		if _, err := d.backend.AddIncome(callCtx, incomeRequest(chat.UserID, c.Income)); err != nil {
			return wizard.Prompt{}, fmt.Errorf("failed to add income: %w", err)
		}
		return wizard.IncomeConfirmation(*c.Income), nil

	case wizard.EffectCommitExpense:
		if _, err := d.backend.AddExpense(callCtx, expenseRequest(chat.UserID, c.Expense)); err != nil {
			return wizard.Prompt{}, fmt.Errorf("failed to add expense: %w", err)
		}
		return wizard.ExpenseConfirmation(*c.Expense), nil
	}

	var err error
	if c.Kind == appmodels.KindIncome {
		err = d.backend.UpdateIncome(callCtx, c.RecordID, incomeRequest(chat.UserID, c.Income))
	} else {
		err = d.backend.UpdateExpense(callCtx, c.RecordID, expenseRequest(chat.UserID, c.Expense))
	}
	if err != nil {
		return wizard.Prompt{}, fmt.Errorf("failed to update %s %d: %w", c.Kind, c.RecordID, err)
	}
	return wizard.EditConfirmation(*c), nil
}

func commitKind(effect wizard.Effect, c *wizard.Commit) string {
	if effect == wizard.EffectCommitEdit {
		return "edit_" + string(c.Kind)
	}
	return string(c.Kind)
}

func incomeRequest(userID int64, d *session.IncomeDraft) appmodels.IncomeRequest {
	return appmodels.IncomeRequest{
		UserID:      userID,
		Amount:      d.Amount,
		Date:        d.Date,
		Category:    d.Category,
		Source:      d.Source,
		Description: d.Description,
	}
}

func expenseRequest(userID int64, d *session.ExpenseDraft) appmodels.ExpenseRequest {
	return appmodels.ExpenseRequest{
		UserID:      userID,
		Amount:      d.Amount,
		Date:        d.Date,
		Category:    d.Category,
		Description: d.Description,
	}
}

// resolveIndex maps a chosen display index to a record and seeds the edit
// draft from it. Unknown indices re-prompt; unfetchable records abort.
func (d *Dispatcher) resolveIndex(ctx context.Context, tg TelegramAPI, chat *session.Chat, index int) {
	id, ok := d.lister.Resolve(chat, index)
	if !ok {
		d.sendPrompt(ctx, tg, chat.ChatID, d.machine.RejectIndex(&chat.Session).Prompt)
		return
	}

	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	rec, err := apiclient.ResolveRecordByAnyKind(callCtx, d.backend, id, lookupOrder(chat)...)
	if err != nil {
		prompt := wizard.EditRecordNotFound()
		if errors.Is(err, apiclient.ErrNotFound) {
			logger.ForChat(chat.ChatID).Warn().Int64("record_id", id).Msg("Record to edit not found")
		} else {
			d.recordFailure(ctx, chat.ChatID, err, "Failed to fetch record to edit")
			prompt = wizard.Prompt{Text: msgBackendFailure}
		}
		d.sendPrompt(ctx, tg, chat.ChatID, d.machine.AbortEdit(&chat.Session, prompt))
		return
	}

	d.sendPrompt(ctx, tg, chat.ChatID, d.machine.BeginEdit(&chat.Session, rec))
}

func (d *Dispatcher) handleCallback(ctx context.Context, tg TelegramAPI, chat *session.Chat, cb CallbackEvent) string {
	if tok, ok := ParseNavToken(cb.Token); ok {
		d.navigate(ctx, tg, chat, cb, tok)
		return routeNavigation
	}

	switch {
	case cb.Token == callbackSummary:
		d.answer(ctx, tg, cb.QueryID, "")
		d.showSummary(ctx, tg, chat, cb.DisplayName)
		return routeSummary

	case cb.Token == callbackMainMenu:
		d.answer(ctx, tg, cb.QueryID, "")
		chat.Session.Reset()
		d.sendText(ctx, tg, chat.ChatID, msgMainMenu, mainMenuKeyboard())
		return routeMainMenu

	case cb.Token == callbackEditList:
		d.answer(ctx, tg, cb.QueryID, "")
		if chat.Listing.Len() == 0 {
			d.sendPrompt(ctx, tg, chat.ChatID, wizard.NoListing())
		} else {
			d.sendPrompt(ctx, tg, chat.ChatID, d.machine.StartEdit(&chat.Session))
		}
		return routeEditList

	case strings.HasPrefix(cb.Token, callbackDeletePrefix):
		if id, err := strconv.ParseInt(strings.TrimPrefix(cb.Token, callbackDeletePrefix), 10, 64); err == nil && id > 0 {
			d.deleteRecord(ctx, tg, chat, cb, id)
			return routeDelete
		}
	}

	d.answer(ctx, tg, cb.QueryID, msgUnknownAction)
	return routeUnknownCallback
}

func (d *Dispatcher) navigate(ctx context.Context, tg TelegramAPI, chat *session.Chat, cb CallbackEvent, tok NavToken) {
	if tok.Depth >= depthMonth {
		if err := d.ensureUser(ctx, chat, cb.DisplayName); err != nil {
			d.answer(ctx, tg, cb.QueryID, msgActionFailed)
			d.backendFailure(ctx, tg, chat, err, "Failed to resolve backend user")
			return
		}
	}

	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	menu, err := d.handleNavigation(callCtx, chat, tok)
	if err != nil {
		d.answer(ctx, tg, cb.QueryID, msgActionFailed)
		d.backendFailure(ctx, tg, chat, err, "Failed to render listing")
		return
	}

	d.answer(ctx, tg, cb.QueryID, "")
	d.showMenu(ctx, tg, chat.ChatID, cb.MessageID, menu)
}

// lookupOrder is the kind order used to fetch a record offered by the latest
// listing. Incomes and expenses do not share an id space, so the listing's
// kind goes first; without a listing it is income, then expense.
func lookupOrder(chat *session.Chat) []appmodels.RecordKind {
	if chat.Listing == nil {
		return []appmodels.RecordKind{appmodels.KindIncome, appmodels.KindExpense}
	}
	return []appmodels.RecordKind{chat.Listing.RecordKind, chat.Listing.RecordKind.Other()}
}

// deleteRecord removes a record offered by the latest listing and refreshes
// that listing.
func (d *Dispatcher) deleteRecord(ctx context.Context, tg TelegramAPI, chat *session.Chat, cb CallbackEvent, id int64) {
	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	rec, err := apiclient.ResolveRecordByAnyKind(callCtx, d.backend, id, lookupOrder(chat)...)
	if err == nil {
		if rec.Kind == appmodels.KindIncome {
			err = d.backend.DeleteIncome(callCtx, id)
		} else {
			err = d.backend.DeleteExpense(callCtx, id)
		}
	}

	switch {
	case errors.Is(err, apiclient.ErrNotFound):
		d.answer(ctx, tg, cb.QueryID, msgRecordNotFound)
		return
	case err != nil:
		d.recordFailure(ctx, chat.ChatID, err, "Failed to delete record")
		d.answer(ctx, tg, cb.QueryID, msgActionFailed)
		return
	}

	logger.ForChat(chat.ChatID).Info().Int64("record_id", id).Str("kind", string(rec.Kind)).Msg("Record deleted")
	d.answer(ctx, tg, cb.QueryID, msgDeleted)

	if l := chat.Listing; l != nil {
		refreshCtx, refreshCancel := d.callContext(ctx)
		defer refreshCancel()

		menu, err := d.handleNavigation(refreshCtx, chat, pageToken(l.RecordKind, l.Year, l.Month, l.Page))
		if err != nil {
			d.recordFailure(ctx, chat.ChatID, err, "Failed to refresh listing after delete")
			return
		}
		d.showMenu(ctx, tg, chat.ChatID, cb.MessageID, menu)
	}
}

func (d *Dispatcher) showSummary(ctx context.Context, tg TelegramAPI, chat *session.Chat, displayName string) {
	if err := d.ensureUser(ctx, chat, displayName); err != nil {
		d.backendFailure(ctx, tg, chat, err, "Failed to resolve backend user")
		return
	}

	now := d.now().In(d.location)
	year, month := now.Year(), int(now.Month())

	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	summary, err := d.backend.GetMonthlySummary(callCtx, chat.UserID, year, month)
	if err != nil {
		d.backendFailure(ctx, tg, chat, err, "Failed to fetch monthly summary")
		return
	}

	d.sendText(ctx, tg, chat.ChatID, formatSummary(summary, year, month), summaryInlineKeyboard())
	if !hasSummaryAmounts(summary) {
		return
	}

	png, err := GenerateSummaryChart(summary, summaryPeriod(year, month))
	if err != nil {
		logger.ForChat(chat.ChatID).Error().Err(err).Msg("Failed to generate summary chart")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chat.ChatID,
		Document: &models.InputFileUpload{Filename: summaryChartFilename(year, month), Data: bytes.NewReader(png)},
		Caption:  "📊 " + summaryPeriod(year, month),
	})
	if err != nil {
		logger.ForChat(chat.ChatID).Error().Err(err).Msg("Failed to send summary chart")
	}
}

// ensureUser binds the chat to a backend user, registering one on first use.
func (d *Dispatcher) ensureUser(ctx context.Context, chat *session.Chat, displayName string) error {
	if chat.UserID != 0 {
		return nil
	}

	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	user, err := d.users.EnsureUser(callCtx, chat.ChatID, displayName)
	if err != nil {
		return fmt.Errorf("failed to ensure backend user: %w", err)
	}
	chat.UserID = user.ID
	return nil
}

func (d *Dispatcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.apiTimeout)
}

func (d *Dispatcher) today() time.Time {
	now := d.now().In(d.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.location)
}

// recordFailure logs a backend error and attaches it to the event span.
func (d *Dispatcher) recordFailure(ctx context.Context, chatID int64, err error, msg string) {
	trace.SpanFromContext(ctx).RecordError(err)
	logger.ForChat(chatID).Error().Err(err).Msg(msg)
}

// backendFailure reports a failed read, resets the chat to Idle and shows the
// main menu.
func (d *Dispatcher) backendFailure(ctx context.Context, tg TelegramAPI, chat *session.Chat, err error, msg string) {
	d.recordFailure(ctx, chat.ChatID, err, msg)
	chat.Session.Reset()
	d.sendText(ctx, tg, chat.ChatID, msgBackendFailure, mainMenuKeyboard())
}

func (d *Dispatcher) sendText(ctx context.Context, tg TelegramAPI, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		logger.ForChat(chatID).Error().Err(err).Msg("Failed to send message")
	}
}

func (d *Dispatcher) sendPrompt(ctx context.Context, tg TelegramAPI, chatID int64, p wizard.Prompt) {
	d.sendText(ctx, tg, chatID, p.Text, promptMarkup(p))
}

func (d *Dispatcher) sendMenu(ctx context.Context, tg TelegramAPI, chatID int64, menu *Menu) {
	d.sendText(ctx, tg, chatID, menu.Text, menu.Keyboard)
}

// showMenu edits the message carrying the pressed button. A new message is
// sent when there is none or the edit fails.
func (d *Dispatcher) showMenu(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, menu *Menu) {
	if messageID != 0 {
		_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        menu.Text,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: menu.Keyboard,
		})
		if err == nil {
			return
		}
		logger.ForChat(chatID).Warn().Err(err).Msg("Failed to edit menu message, sending a new one")
	}
	d.sendMenu(ctx, tg, chatID, menu)
}

func (d *Dispatcher) answer(ctx context.Context, tg TelegramAPI, queryID, text string) {
	_, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to answer callback query")
	}
}
