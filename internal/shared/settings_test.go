package shared

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWatchSettings(t *testing.T) {
	t.Run("Snapshot is a copy", func(t *testing.T) {
		s := NewWatchSettings(WatchConfig{Enabled: true, Workers: 2})
		snap := s.Snapshot()
		snap.Enabled = false

		if !s.Snapshot().Enabled {
			t.Error("mutating a snapshot should not change the settings")
		}
	})

	t.Run("Update rejects invalid config", func(t *testing.T) {
		s := NewWatchSettings(WatchConfig{Enabled: true, PollInterval: "1h"})
		err := s.Update(WatchConfig{PollInterval: "soon"})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
		if s.Snapshot().PollInterval != "1h" {
			t.Error("invalid update should leave settings unchanged")
		}
	})

	t.Run("SetEnabled keeps other fields", func(t *testing.T) {
		s := NewWatchSettings(WatchConfig{Enabled: true, Workers: 4, AlbumTypes: "album"})
		got := s.SetEnabled(false)
		if got.Enabled || got.Workers != 4 || got.AlbumTypes != "album" {
			t.Errorf("SetEnabled(false) = %+v", got)
		}
	})

	t.Run("Modify keeps concurrent changes to different fields", func(t *testing.T) {
		s := NewWatchSettings(WatchConfig{Enabled: true, PollInterval: "1h", AlbumTypes: "album"})

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if _, err := s.Modify(func(c *WatchConfig) error {
					c.PollInterval = "30m"
					return nil
				}); err != nil {
					t.Errorf("modify %d failed: %v", i, err)
				}
			}()
			go func() {
				defer wg.Done()
				if _, err := s.Modify(func(c *WatchConfig) error {
					c.AlbumTypes = "album,single"
					return nil
				}); err != nil {
					t.Errorf("modify %d failed: %v", i, err)
				}
			}()
		}
		wg.Wait()

		got := s.Snapshot()
		if got.PollInterval != "30m" || got.AlbumTypes != "album,single" || !got.Enabled {
			t.Errorf("expected both changes kept, got %+v", got)
		}
	})

	t.Run("Modify leaves settings unchanged on error", func(t *testing.T) {
		s := NewWatchSettings(WatchConfig{Enabled: true, PollInterval: "1h"})

		_, err := s.Modify(func(c *WatchConfig) error {
			c.Enabled = false
			return ErrInvalidArgument
		})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		_, err = s.Modify(func(c *WatchConfig) error {
			c.PollInterval = "soon"
			return nil
		})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
		if got := s.Snapshot(); !got.Enabled || got.PollInterval != "1h" {
			t.Errorf("settings changed after failed modify: %+v", got)
		}
	})

	t.Run("concurrent toggles", func(t *testing.T) {
		s := NewWatchSettings(WatchConfig{Workers: 1})
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.SetEnabled(i%2 == 0)
				_ = s.Snapshot()
			}()
		}
		wg.Wait()

		if s.Snapshot().Workers != 1 {
			t.Error("toggling should never lose other fields")
		}
	})
}

func TestWatchConfig(t *testing.T) {
	tc := []struct {
		name     string
		cfg      WatchConfig
		workers  int
		interval time.Duration
		queue    int
	}{
		{name: "defaults", cfg: WatchConfig{}, workers: DefaultWorkers, interval: 0, queue: DefaultQueue},
		{name: "clamped", cfg: WatchConfig{Workers: 50, PollInterval: "30m", QueueSize: 8}, workers: MaxWorkers, interval: 30 * time.Minute, queue: 8},
		{name: "invalid interval", cfg: WatchConfig{Workers: 2, PollInterval: "never"}, workers: 2, interval: 0, queue: DefaultQueue},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.WorkerCount(); got != tt.workers {
				t.Errorf("WorkerCount() = %d, want %d", got, tt.workers)
			}
			if got := tt.cfg.Interval(); got != tt.interval {
				t.Errorf("Interval() = %v, want %v", got, tt.interval)
			}
			if got := tt.cfg.QueueCapacity(); got != tt.queue {
				t.Errorf("QueueCapacity() = %d, want %d", got, tt.queue)
			}
		})
	}
}
