package shared

import "sync/atomic"

// WatchSettings holds the live [WatchConfig].
//
// Readers take a [WatchSettings.Snapshot] once at the start of an operation and use it throughout;
// [WatchSettings.Update] swaps the whole value so an in-progress operation never observes a partial change.
type WatchSettings struct {
	current atomic.Pointer[WatchConfig]
}

// NewWatchSettings creates a holder seeded with cfg.
func NewWatchSettings(cfg WatchConfig) *WatchSettings {
	s := &WatchSettings{}
	s.current.Store(&cfg)
	return s
}

// Snapshot returns a copy of the current settings.
func (s *WatchSettings) Snapshot() WatchConfig {
	return *s.current.Load()
}

// Update validates and installs cfg.
func (s *WatchSettings) Update(cfg WatchConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.current.Store(&cfg)
	return nil
}

// Modify applies fn to a copy of the current settings and installs the result with compare-and-swap,
// rerunning fn if another writer got in first. Nothing changes when fn or validation fails.
func (s *WatchSettings) Modify(fn func(*WatchConfig) error) (WatchConfig, error) {
	for {
		old := s.current.Load()
		next := *old
		if err := fn(&next); err != nil {
			return *old, err
		}
		if err := next.Validate(); err != nil {
			return *old, err
		}
		if s.current.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
}

// SetEnabled toggles the feature flag and keeps the other settings.
func (s *WatchSettings) SetEnabled(enabled bool) WatchConfig {
	for {
		old := s.current.Load()
		next := *old
		next.Enabled = enabled
		if s.current.CompareAndSwap(old, &next) {
			return next
		}
	}
}
