package store

import "time"

// CaseType tags the three case variants.
type CaseType string

const (
	CaseNote    CaseType = "note"
	CaseWarning CaseType = "warning"
	CaseMute    CaseType = "mute"
)

// Guild is a community workspace, created on first moderation action.
type Guild struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"type:text"`
}

// Member is the (user, guild) pair every case attaches to.
type Member struct {
	UserID  string `gorm:"primaryKey"`
	GuildID string `gorm:"primaryKey"`
}

// Case is a persisted moderation record. Ids are store-assigned, unique
// across the whole system and never reused. Mute cases additionally carry
// duration, computed expiry and the active flag; those fields stay zero for
// notes and warnings.
type Case struct {
	ID        int64    `gorm:"primaryKey;autoIncrement"`
	Type      CaseType `gorm:"index;not null"`
	GuildID   string   `gorm:"index;not null"`
	UserID    string   `gorm:"index;not null"`
	CreatedBy string   `gorm:"not null"`
	Body      string   `gorm:"type:text"`
	CreatedAt time.Time

	DurationSeconds int64
	ExpiresAt       *time.Time
	Active          bool `gorm:"index"`
}

// Expired reports whether a mute case is past its expiry at the given time.
func (c *Case) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
