package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pagebuilder/internal/domain"
)

// KV is the key/value store backing the session. storage.SessionStore
// implements it.
type KV interface {
	Get(key string, dst any) (bool, error)
	Set(key string, value any) error
	Delete(key string) error
}

const sessionLastSiteKey = "last_site_id"

func menuDraftKey(siteID, locale string) string {
	return fmt.Sprintf("menus:%s:%s", siteID, locale)
}

// SessionService persists editor state between runs: the last selected
// site and unsaved menu trees per site and locale. Every change is written
// through immediately.
type SessionService struct {
	mu         sync.Mutex
	store      KV
	logger     *zap.Logger
	lastSiteID string
}

// NewSessionService loads the persisted session from store.
func NewSessionService(store KV, logger *zap.Logger) (*SessionService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionService{store: store, logger: logger.Named("session")}
	if _, err := store.Get(sessionLastSiteKey, &s.lastSiteID); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// LastSiteID returns the last selected site, or "".
func (s *SessionService) LastSiteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSiteID
}

// SetLastSiteID records the selected site.
func (s *SessionService) SetLastSiteID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.lastSiteID {
		return nil
	}
	if err := s.store.Set(sessionLastSiteKey, id); err != nil {
		return err
	}
	s.lastSiteID = id
	return nil
}

// MenuDraft returns the unsaved menus of a site and locale.
func (s *SessionService) MenuDraft(siteID, locale string) (domain.MenuSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var set domain.MenuSet
	ok, err := s.store.Get(menuDraftKey(siteID, locale), &set)
	return set, ok, err
}

// SetMenuDraft stores the unsaved menus of a site and locale.
func (s *SessionService) SetMenuDraft(siteID, locale string, set domain.MenuSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(menuDraftKey(siteID, locale), set); err != nil {
		return err
	}
	s.logger.Debug("menu draft stored", zap.String("site_id", siteID), zap.String("locale", locale))
	return nil
}

// ClearMenuDraft forgets the unsaved menus of a site and locale.
func (s *SessionService) ClearMenuDraft(siteID, locale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(menuDraftKey(siteID, locale))
}
