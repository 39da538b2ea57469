package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/charmbracelet/log"

	"todo/internal/logging"
	"todo/internal/storage"
)

// Storage keys.
const (
	TodosKey       = "todos"
	SelectedTabKey = "selectedTab"
)

// Service owns the to-do collection and the selected tab, and writes both
// through to a storage.Store.
//
// The in-memory state is authoritative for the session: a failed save is
// reported as a *PersistenceError but never rolls back the mutation. A
// Service is not safe for concurrent use; callers issue one operation at a
// time.
type Service struct {
	store      storage.Store
	logger     *log.Logger
	newID      func() ID
	defaultTab Category

	items *Collection
	tab   Category
}

type Option func(*Service)

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces NewID; tests use it for deterministic ids.
func WithIDGenerator(fn func() ID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithDefaultTab sets the tab used when none has been stored yet.
func WithDefaultTab(c Category) Option {
	return func(s *Service) {
		if c.Valid() {
			s.defaultTab = c
		}
	}
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		logger:     logging.Discard(),
		newID:      NewID,
		defaultTab: Work,
		items:      NewCollection(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tab = s.defaultTab
	return s
}

// Initialize loads the collection and the selected tab.
//
// Missing or undecodable data yields an empty collection and the default tab.
// Only a storage read failure is returned, as a *PersistenceError; the
// service is usable either way.
func (s *Service) Initialize(ctx context.Context) error {
	var errs []error

	s.items = NewCollection()
	b, err := s.store.Get(ctx, TodosKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("no stored todos; starting empty")
	case err != nil:
		s.logger.Warn("load todos failed; starting empty", "err", err)
		errs = append(errs, &PersistenceError{Op: "load", Key: TodosKey, Err: err})
	default:
		col, report, derr := DecodeCollection(b)
		if derr != nil {
			s.logger.Warn("stored todos are corrupt; starting empty", "err", derr)
			break
		}
		for _, skipped := range report.Skipped {
			s.logger.Warn("skipped stored todo", "entry", skipped)
		}
		s.items = col
	}

	s.tab = s.defaultTab
	b, err = s.store.Get(ctx, SelectedTabKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("no stored tab; using default", "tab", s.defaultTab)
	case err != nil:
		s.logger.Warn("load selected tab failed; using default", "err", err)
		errs = append(errs, &PersistenceError{Op: "load", Key: SelectedTabKey, Err: err})
	default:
		var rec tabRecord
		if derr := json.Unmarshal(b, &rec); derr != nil {
			s.logger.Warn("stored tab is corrupt; using default", "err", derr)
			break
		}
		if rec.Category == nil || !rec.Category.Valid() {
			s.logger.Warn("stored tab has no category; using default", "tab", s.defaultTab)
			break
		}
		s.tab = *rec.Category
	}

	s.logger.Info("initialized", "items", s.items.Len(), "tab", s.tab)
	return errors.Join(errs...)
}

type tabRecord struct {
	Category *Category `json:"category"`
}

func (s *Service) SelectedTab() Category { return s.tab }

// SelectTab switches the active tab and persists it. Selecting the current
// tab again is allowed and rewrites the same value.
func (s *Service) SelectTab(ctx context.Context, c Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	s.tab = c
	b, err := json.Marshal(tabRecord{Category: &c})
	if err != nil {
		return err
	}
	return s.persist(ctx, SelectedTabKey, b)
}

// AddItem appends a new incomplete item and returns its id.
func (s *Service) AddItem(ctx context.Context, text string, c Category) (ID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	id := s.freshID()
	s.items.Put(Item{ID: id, Text: text, Category: c, Status: Incomplete})
	s.logger.Debug("added", "id", id, "category", c)
	return id, s.saveTodos(ctx)
}

// maxIDAttempts bounds how often the configured generator may collide before
// falling back to NewID.
const maxIDAttempts = 8

func (s *Service) freshID() ID {
	for range maxIDAttempts {
		if id := s.newID(); !s.taken(id) {
			return id
		}
	}
	s.logger.Warn("id generator keeps colliding; using random ids")
	for {
		if id := NewID(); !s.taken(id) {
			return id
		}
	}
}

func (s *Service) taken(id ID) bool {
	_, ok := s.items.Get(id)
	return ok
}

// RenameItem replaces an item's text. The caller decides which item is in
// edit mode; any existing id is accepted.
func (s *Service) RenameItem(ctx context.Context, id ID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	it, ok := s.items.Get(id)
	if !ok {
		return ErrNotFound
	}
	if it.Text == text {
		return nil
	}
	it.Text = text
	s.items.Put(it)
	s.logger.Debug("renamed", "id", id)
	return s.saveTodos(ctx)
}

// ToggleStatus flips an item between incomplete and complete and returns the
// new status. Confirmation happens before the call, in the caller.
func (s *Service) ToggleStatus(ctx context.Context, id ID) (Status, error) {
	it, ok := s.items.Get(id)
	if !ok {
		return Incomplete, ErrNotFound
	}
	it.Status = it.Status.Toggle()
	s.items.Put(it)
	s.logger.Debug("toggled", "id", id, "status", it.Status)
	return it.Status, s.saveTodos(ctx)
}

// DeleteItem removes an item. Confirmation happens before the call, in the
// caller.
func (s *Service) DeleteItem(ctx context.Context, id ID) error {
	if !s.items.Delete(id) {
		return ErrNotFound
	}
	s.logger.Debug("deleted", "id", id)
	return s.saveTodos(ctx)
}

// ListByCategory yields the items of c in collection order. The sequence can
// be ranged over again and reflects later mutations.
func (s *Service) ListByCategory(c Category) iter.Seq[Item] {
	return s.items.ByCategory(c)
}

// Items yields every item regardless of category.
func (s *Service) Items() iter.Seq[Item] {
	return s.items.All()
}

func (s *Service) Item(id ID) (Item, bool) { return s.items.Get(id) }

func (s *Service) Len() int { return s.items.Len() }

// Count returns how many items c holds and how many of them are complete.
func (s *Service) Count(c Category) (total, done int) {
	for it := range s.items.ByCategory(c) {
		total++
		if it.Done() {
			done++
		}
	}
	return total, done
}

// ResolveID finds an item by full id or by a unique suffix of at least four
// characters (what ID.Short prints).
func (s *Service) ResolveID(ref string) (ID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}
	if _, ok := s.items.Get(ID(ref)); ok {
		return ID(ref), nil
	}
	if len(ref) < 4 {
		return "", ErrNotFound
	}
	var match ID
	for it := range s.items.All() {
		if !strings.HasSuffix(string(it.ID), ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %q", ErrAmbiguousID, ref)
		}
		match = it.ID
	}
	if match == "" {
		return "", ErrNotFound
	}
	return match, nil
}

func (s *Service) saveTodos(ctx context.Context) error {
	b, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("encode todos", "err", err)
		return &PersistenceError{Op: "save", Key: TodosKey, Err: err}
	}
	return s.persist(ctx, TodosKey, b)
}

func (s *Service) persist(ctx context.Context, key string, b []byte) error {
	if err := s.store.Set(ctx, key, b); err != nil {
		s.logger.Warn("save failed; change kept in memory only", "key", key, "err", err)
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}
