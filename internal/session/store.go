package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

// ErrNoListing is returned when an index is resolved before any list was rendered.
var ErrNoListing = errors.New("no listing rendered for chat")

const defaultPersistTimeout = 3 * time.Second

// Snapshot is the serializable form of a Chat.
type Snapshot struct {
	ChatID            int64              `json:"chat_id"`
	UserID            int64              `json:"user_id,omitempty"`
	State             State              `json:"state"`
	DraftIncome       *IncomeDraft       `json:"draft_income,omitempty"`
	DraftExpense      *ExpenseDraft      `json:"draft_expense,omitempty"`
	EditingRecordID   *int64             `json:"editing_record_id,omitempty"`
	EditingRecordKind *models.RecordKind `json:"editing_record_kind,omitempty"`
	Listing           *ListingContext    `json:"listing,omitempty"`
}

// Persister stores chat snapshots outside the process.
type Persister interface {
	Load(ctx context.Context, chatID int64) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// SnapshotOf captures the state of a chat.
func SnapshotOf(c *Chat) Snapshot {
	s := c.Session.Clone()
	snap := Snapshot{
		ChatID:            c.ChatID,
		UserID:            c.UserID,
		State:             s.State,
		DraftIncome:       s.DraftIncome,
		DraftExpense:      s.DraftExpense,
		EditingRecordID:   s.EditingRecordID,
		EditingRecordKind: s.EditingRecordKind,
	}
	if c.Listing != nil {
		snap.Listing = NewListingContext(c.Listing.RecordKind, c.Listing.Year, c.Listing.Month, c.Listing.Page, c.Listing.IndexToID)
	}
	return snap
}

// Restore rebuilds a chat from a snapshot. Snapshots violating the session
// invariants restore as Idle.
func (snap Snapshot) Restore() Chat {
	c := Chat{
		ChatID: snap.ChatID,
		UserID: snap.UserID,
		Session: ChatSession{
			State:             snap.State,
			DraftIncome:       snap.DraftIncome,
			DraftExpense:      snap.DraftExpense,
			EditingRecordID:   snap.EditingRecordID,
			EditingRecordKind: snap.EditingRecordKind,
		},
		Listing: snap.Listing,
	}
	if c.Session.State == "" || c.Session.Validate() != nil {
		c.Session.Reset()
	}
	return c
}

// entry guards one chat. sem is a one-slot semaphore so waiting for the lock
// can observe ctx.
type entry struct {
	sem    chan struct{}
	chat   Chat
	loaded bool
}

// Store keeps chat state in memory, keyed by chat ID. Each chat has its own
// lock; chats never contend with each other beyond the map lookup.
type Store struct {
	mu        sync.Mutex
	chats     map[int64]*entry
	persister Persister
	timeout   time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister enables write-through snapshots.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) {
		s.persister = p
	}
}

// WithPersistTimeout bounds each persister call.
func WithPersistTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		chats:   make(map[int64]*entry),
		timeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) entryFor(chatID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.chats[chatID]
	if !ok {
		e = &entry{
			sem:  make(chan struct{}, 1),
			chat: Chat{ChatID: chatID, Session: NewChatSession()},
		}
		s.chats[chatID] = e
	}
	return e
}

// Acquire locks the chat and returns its live state. The caller owns the
// returned Chat until Release.
func (s *Store) Acquire(ctx context.Context, chatID int64) (*Chat, error) {
	e := s.entryFor(chatID)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to lock chat: %w", ctx.Err())
	}

	if !e.loaded {
		e.loaded = true
		s.load(ctx, e)
	}
	return &e.chat, nil
}

// Release persists the chat (when a persister is configured) and unlocks it.
func (s *Store) Release(ctx context.Context, c *Chat) {
	s.mu.Lock()
	e, ok := s.chats[c.ChatID]
	s.mu.Unlock()
	if !ok {
		return
	}

	if s.persister != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		if err := s.persister.Save(pctx, SnapshotOf(c)); err != nil {
			logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(c.ChatID)).Msg("Failed to persist chat session")
		}
		cancel()
	}

	<-e.sem
}

func (s *Store) load(ctx context.Context, e *entry) {
	if s.persister == nil {
		return
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.persister.Load(pctx, e.chat.ChatID)
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(e.chat.ChatID)).Msg("Failed to load chat session")
		return
	}
	if snap == nil {
		return
	}
	snap.ChatID = e.chat.ChatID
	e.chat = snap.Restore()
}

// Get returns a copy of the chat's session, creating an Idle one if absent.
func (s *Store) Get(chatID int64) ChatSession {
	c, err := s.Acquire(context.Background(), chatID)
	if err != nil {
		return NewChatSession()
	}
	defer s.Release(context.Background(), c)
	return c.Session.Clone()
}

// Put replaces the chat's session.
func (s *Store) Put(chatID int64, sess ChatSession) {
	c, err := s.Acquire(context.Background(), chatID)
	if err != nil {
		return
	}
	defer s.Release(context.Background(), c)
	c.Session = sess.Clone()
}

// Clear resets the chat's session to Idle with empty drafts.
func (s *Store) Clear(chatID int64) {
	c, err := s.Acquire(context.Background(), chatID)
	if err != nil {
		return
	}
	defer s.Release(context.Background(), c)
	c.Session.Reset()
}

// Listing returns a copy of the chat's current listing context.
func (s *Store) Listing(chatID int64) (*ListingContext, error) {
	c, err := s.Acquire(context.Background(), chatID)
	if err != nil {
		return nil, err
	}
	defer s.Release(context.Background(), c)
	if c.Listing == nil {
		return nil, ErrNoListing
	}
	l := c.Listing
	return NewListingContext(l.RecordKind, l.Year, l.Month, l.Page, l.IndexToID), nil
}
