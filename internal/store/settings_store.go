package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/taskplanner/internal/model"
)

type settingsRow struct {
	Codes    string `db:"codes"`
	Channels string `db:"channels"`
	Types    string `db:"types"`
}

// GetSettings returns the stored settings, seeding the defaults on first use.
func (s *SQLiteStore) GetSettings(ctx context.Context) (model.Settings, error) {
	var r settingsRow
	err := s.db.GetContext(ctx, &r, "SELECT codes, channels, types FROM settings WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		def := model.DefaultSettings()
		if err := s.putSettings(ctx, def); err != nil {
			return model.Settings{}, err
		}
		return def, nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("getting settings: %w", err)
	}

	var out model.Settings
	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{r.Codes, &out.Codes},
		{r.Channels, &out.Channels},
		{r.Types, &out.Types},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return model.Settings{}, fmt.Errorf("unmarshaling settings: %w", err)
		}
	}
	return out, nil
}

// PutSettings replaces the stored settings.
func (s *SQLiteStore) PutSettings(ctx context.Context, settings model.Settings) error {
	if err := s.putSettings(ctx, settings); err != nil {
		return err
	}
	s.refreshSettings(ctx)
	return nil
}

func (s *SQLiteStore) putSettings(ctx context.Context, settings model.Settings) error {
	codes, _ := json.Marshal(nonNil(settings.Codes))
	channels, _ := json.Marshal(nonNil(settings.Channels))
	types, _ := json.Marshal(nonNil(settings.Types))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, codes, channels, types, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			codes = excluded.codes,
			channels = excluded.channels,
			types = excluded.types,
			updated_at = excluded.updated_at`,
		string(codes), string(channels), string(types), time.Now().UTC(),
	)
	if err != nil {
		return writeErr("put settings", "", err)
	}
	return nil
}

// SubscribeSettings returns a latest-value feed of the settings, starting
// with the current value.
func (s *SQLiteStore) SubscribeSettings(ctx context.Context) (<-chan model.Settings, error) {
	ch, cancel := s.settingsFeed.subscribe(ctx)

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	settings, err := s.GetSettings(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribing to settings: %w", err)
	}
	s.settingsFeed.publish(settings)

	return ch, nil
}

func (s *SQLiteStore) refreshSettings(ctx context.Context) {
	if !s.settingsFeed.active() {
		return
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	settings, err := s.GetSettings(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Warn("refreshing settings feed", "error", err)
		return
	}
	s.settingsFeed.publish(settings)
}
