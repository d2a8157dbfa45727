// Package store persists guilds, members and moderation cases behind a GORM
// connection (sqlite or postgres). Every operation is atomic from the
// caller's perspective; the store is the only consistency boundary the
// orchestrator relies on.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps the shared GORM connection.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
// Supported drivers: "sqlite", "postgres".
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	silent := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 silent,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	if err := db.AutoMigrate(&Guild{}, &Member{}, &Case{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing GORM connection; used by tests.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Guild{}, &Member{}, &Case{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping verifies the datasource is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertGuild creates the guild row if absent. The update path is a no-op:
// an existing name is never overwritten by later upserts (first-write-wins).
func (s *Store) UpsertGuild(ctx context.Context, id, name string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Guild{ID: id, Name: name}).Error
}

// UpsertMember creates the (user, guild) row if absent.
func (s *Store) UpsertMember(ctx context.Context, userID, guildID string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Member{UserID: userID, GuildID: guildID}).Error
}

// CreateNote stores a note case and returns it with the assigned id.
func (s *Store) CreateNote(ctx context.Context, guildID, userID, createdBy, content string) (*Case, error) {
	c := &Case{
		Type:      CaseNote,
		GuildID:   guildID,
		UserID:    userID,
		CreatedBy: createdBy,
		Body:      content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CreateWarning stores a warning case and returns it with the assigned id.
func (s *Store) CreateWarning(ctx context.Context, guildID, userID, createdBy, reason string) (*Case, error) {
	c := &Case{
		Type:      CaseWarning,
		GuildID:   guildID,
		UserID:    userID,
		CreatedBy: createdBy,
		Body:      reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CreateMute stores an active mute case. Expiry is computed from the
// creation time plus the duration; the store never auto-expires it.
func (s *Store) CreateMute(ctx context.Context, guildID, userID, createdBy, reason string, duration time.Duration) (*Case, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(duration)
	c := &Case{
		Type:            CaseMute,
		GuildID:         guildID,
		UserID:          userID,
		CreatedBy:       createdBy,
		Body:            reason,
		CreatedAt:       now,
		DurationSeconds: int64(duration.Seconds()),
		ExpiresAt:       &expiresAt,
		Active:          true,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// FindCase looks up a case by id. Returns ErrNotFound when absent and
// ErrIDOutOfRange for ids outside the representable range.
func (s *Store) FindCase(ctx context.Context, id int64) (*Case, error) {
	if id <= 0 || id > 2147483647 {
		return nil, ErrIDOutOfRange
	}
	var c Case
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCase permanently removes a note or warning. Mute cases are never
// deleted; unmuting only clears their active flag. Returns ErrNotFound when
// the id does not exist.
func (s *Store) DeleteCase(ctx context.Context, id int64) error {
	c, err := s.FindCase(ctx, id)
	if err != nil {
		return err
	}
	if c.Type == CaseMute {
		return ErrWrongType
	}
	res := s.db.WithContext(ctx).Delete(&Case{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCasesForUser returns every case of the given type for the (user, guild)
// pair, newest creation timestamp first, as a materialized slice.
func (s *Store) ListCasesForUser(ctx context.Context, userID, guildID string, caseType CaseType) ([]Case, error) {
	var cases []Case
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND type = ?", userID, guildID, caseType).
		Order("created_at DESC, id DESC").
		Find(&cases).Error
	if err != nil {
		return nil, err
	}
	return cases, nil
}

// FindLatestActiveMute returns the most recent active mute for the pair, or
// ErrNotFound when none exists.
func (s *Store) FindLatestActiveMute(ctx context.Context, userID, guildID string) (*Case, error) {
	var c Case
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND guild_id = ? AND type = ? AND active = ?", userID, guildID, CaseMute, true).
		Order("created_at DESC, id DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeactivateActiveMutes clears the active flag on every currently-active mute
// for the (user, guild) pair and returns the number of rows updated. The
// conditional bulk update makes concurrent unmutes safe: the second call
// simply updates zero rows.
func (s *Store) DeactivateActiveMutes(ctx context.Context, userID, guildID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&Case{}).
		Where("user_id = ? AND guild_id = ? AND type = ? AND active = ?", userID, guildID, CaseMute, true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// CountCases returns the number of cases per type, for the status endpoints.
func (s *Store) CountCases(ctx context.Context) (map[CaseType]int64, error) {
	counts := make(map[CaseType]int64)
	for _, t := range []CaseType{CaseNote, CaseWarning, CaseMute} {
		var n int64
		if err := s.db.WithContext(ctx).Model(&Case{}).Where("type = ?", t).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, nil
}
