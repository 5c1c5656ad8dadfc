package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/cppla/keepsake/engagement"
)

// EngagementState stores one engagement record per identity. Daily content is
// flattened into daily_* columns so that each sub-field can be merged alone.
type EngagementState struct {
	Identity             string         `gorm:"primaryKey;size:128"`
	Streak               int            `gorm:"not null"`
	LongestStreak        int            `gorm:"not null"`
	StreakFreezes        int            `gorm:"not null"`
	FreezesUsed          int            `gorm:"not null"`
	LastStreakUpdateDate *string        `gorm:"size:10"`
	NextAvailableDate    *string        `gorm:"size:10"`
	TotalVisits          int            `gorm:"not null"`
	CurrentGameID        *string        `gorm:"size:128"`
	ShownPhotoIDs        datatypes.JSON `gorm:"column:shown_photo_ids"`
	ShownMessageIDs      datatypes.JSON `gorm:"column:shown_message_ids"`
	CollectedBadges      datatypes.JSON
	CollectedTickets     datatypes.JSON
	MoodReactions        datatypes.JSON

	DailyDate           *string `gorm:"size:10"`
	DailyCycleStartDate *string `gorm:"size:10"`
	DailyPhotoID        *string `gorm:"size:128"`
	DailyMessageID      *string `gorm:"size:128"`
	DailyMinigameID     *string `gorm:"size:128"`
	DailyIsSpecial      bool    `gorm:"not null"`

	// Version increases with every committed write.
	Version int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements the GORM tabler interface.
func (EngagementState) TableName() string { return "engagement_states" }

// NewEngagementState builds a row for identity holding s.
func NewEngagementState(identity string, s engagement.State) (*EngagementState, error) {
	row := &EngagementState{Identity: identity}
	if err := row.SetState(s); err != nil {
		return nil, err
	}
	return row, nil
}

// State decodes the row into the engagement model.
func (e *EngagementState) State() (engagement.State, error) {
	s := engagement.NewState()
	s.Streak = e.Streak
	s.LongestStreak = e.LongestStreak
	s.StreakFreezes = e.StreakFreezes
	s.FreezesUsed = e.FreezesUsed
	s.LastStreakUpdateDate = e.LastStreakUpdateDate
	s.NextAvailableDate = e.NextAvailableDate
	s.TotalVisits = e.TotalVisits
	s.CurrentGameID = e.CurrentGameID

	for _, col := range []struct {
		name string
		raw  datatypes.JSON
		dst  any
	}{
		{"shown_photo_ids", e.ShownPhotoIDs, &s.ShownPhotoIDs},
		{"shown_message_ids", e.ShownMessageIDs, &s.ShownMessageIDs},
		{"collected_badges", e.CollectedBadges, &s.CollectedBadges},
		{"collected_tickets", e.CollectedTickets, &s.CollectedTickets},
		{"mood_reactions", e.MoodReactions, &s.MoodReactions},
	} {
		if len(col.raw) == 0 || string(col.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return s, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}

	s.DailyContent = engagement.DailyContent{
		Date:           e.DailyDate,
		CycleStartDate: e.DailyCycleStartDate,
		PhotoID:        e.DailyPhotoID,
		MessageID:      e.DailyMessageID,
		MinigameID:     e.DailyMinigameID,
		IsSpecial:      e.DailyIsSpecial,
	}
	return s.Clone(), nil
}

// SetState replaces every stored field with s.
func (e *EngagementState) SetState(s engagement.State) error {
	s = s.Clone()
	e.Streak = s.Streak
	e.LongestStreak = s.LongestStreak
	e.StreakFreezes = s.StreakFreezes
	e.FreezesUsed = s.FreezesUsed
	e.LastStreakUpdateDate = s.LastStreakUpdateDate
	e.NextAvailableDate = s.NextAvailableDate
	e.TotalVisits = s.TotalVisits
	e.CurrentGameID = s.CurrentGameID

	var err error
	if e.ShownPhotoIDs, err = encodeSet(s.ShownPhotoIDs); err != nil {
		return err
	}
	if e.ShownMessageIDs, err = encodeSet(s.ShownMessageIDs); err != nil {
		return err
	}
	if e.CollectedBadges, err = encodeSet(s.CollectedBadges); err != nil {
		return err
	}
	if e.CollectedTickets, err = encodeSet(s.CollectedTickets); err != nil {
		return err
	}
	moods := s.MoodReactions
	if moods == nil {
		moods = map[string]string{}
	}
	b, err := json.Marshal(moods)
	if err != nil {
		return fmt.Errorf("encode mood_reactions: %w", err)
	}
	e.MoodReactions = datatypes.JSON(b)

	d := s.DailyContent
	e.DailyDate = d.Date
	e.DailyCycleStartDate = d.CycleStartDate
	e.DailyPhotoID = d.PhotoID
	e.DailyMessageID = d.MessageID
	e.DailyMinigameID = d.MinigameID
	e.DailyIsSpecial = d.IsSpecial
	return nil
}

func encodeSet(v []string) (datatypes.JSON, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
