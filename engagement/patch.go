package engagement

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPatch is returned when a patch carries a value the record cannot hold.
var ErrInvalidPatch = errors.New("invalid patch")

var jsonNull = []byte("null")

// Opt is a patch field for a non-nullable value. An absent key and an
// explicit null both leave the field unset.
type Opt[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Opt.
func Some[T any](v T) Opt[T] { return Opt[T]{Set: true, Value: v} }

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return jsonNull, nil
	}
	return json.Marshal(o.Value)
}

// Nullable is a patch field for a nullable value. An absent key leaves the
// field unset; an explicit null sets it and clears the stored value.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Null returns a Nullable that clears the stored value.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

// Val returns a Nullable holding v.
func Val[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(*n.Value)
}

// Patch is a partial EngagementState. Only fields with Set == true are applied.
type Patch struct {
	Streak               Opt[int]               `json:"streak"`
	LongestStreak        Opt[int]               `json:"longestStreak"`
	StreakFreezes        Opt[int]               `json:"streakFreezes"`
	FreezesUsed          Opt[int]               `json:"freezesUsed"`
	LastStreakUpdateDate Nullable[string]       `json:"lastStreakUpdateDate"`
	NextAvailableDate    Nullable[string]       `json:"nextAvailableDate"`
	TotalVisits          Opt[int]               `json:"totalVisits"`
	CurrentGameID        Nullable[string]       `json:"currentGameId"`
	ShownPhotoIDs        Opt[[]string]          `json:"shownPhotoIds"`
	ShownMessageIDs      Opt[[]string]          `json:"shownMessageIds"`
	CollectedBadges      Opt[[]string]          `json:"collectedBadges"`
	CollectedTickets     Opt[[]string]          `json:"collectedTickets"`
	MoodReactions        Opt[map[string]string] `json:"moodReactions"`
	DailyContent         Opt[DailyContentPatch] `json:"dailyContent"`
}

// DailyContentPatch merges into DailyContent sub-field by sub-field.
type DailyContentPatch struct {
	Date           Nullable[string] `json:"date"`
	CycleStartDate Nullable[string] `json:"cycleStartDate"`
	PhotoID        Nullable[string] `json:"photoId"`
	MessageID      Nullable[string] `json:"messageId"`
	MinigameID     Nullable[string] `json:"minigameId"`
	IsSpecial      Opt[bool]        `json:"isSpecial"`
}

// IsEmpty reports whether the patch sets nothing.
func (p Patch) IsEmpty() bool {
	d := p.DailyContent.Value
	dailySet := p.DailyContent.Set && (d.Date.Set || d.CycleStartDate.Set || d.PhotoID.Set ||
		d.MessageID.Set || d.MinigameID.Set || d.IsSpecial.Set)
	return !(p.Streak.Set || p.LongestStreak.Set || p.StreakFreezes.Set || p.FreezesUsed.Set ||
		p.LastStreakUpdateDate.Set || p.NextAvailableDate.Set || p.TotalVisits.Set ||
		p.CurrentGameID.Set || p.ShownPhotoIDs.Set || p.ShownMessageIDs.Set ||
		p.CollectedBadges.Set || p.CollectedTickets.Set || p.MoodReactions.Set || dailySet)
}

// ApplyPatch returns s with every set field of p applied.
//
// Counters must be non-negative and the running totals (freezesUsed,
// totalVisits, longestStreak) cannot go backwards. Dates must be calendar
// days and sets are deduplicated. After applying, longestStreak is raised to
// streak if the patch left it below.
func ApplyPatch(s State, p Patch) (State, error) {
	next := s.Clone()

	for _, c := range []struct {
		name string
		opt  Opt[int]
		dst  *int
	}{
		{"streak", p.Streak, &next.Streak},
		{"longestStreak", p.LongestStreak, &next.LongestStreak},
		{"streakFreezes", p.StreakFreezes, &next.StreakFreezes},
		{"freezesUsed", p.FreezesUsed, &next.FreezesUsed},
		{"totalVisits", p.TotalVisits, &next.TotalVisits},
	} {
		if !c.opt.Set {
			continue
		}
		if c.opt.Value < 0 {
			return s, fmt.Errorf("%w: %s must not be negative", ErrInvalidPatch, c.name)
		}
		*c.dst = c.opt.Value
	}
	if next.FreezesUsed < s.FreezesUsed {
		return s, fmt.Errorf("%w: freezesUsed cannot decrease", ErrInvalidPatch)
	}
	if next.TotalVisits < s.TotalVisits {
		return s, fmt.Errorf("%w: totalVisits cannot decrease", ErrInvalidPatch)
	}
	if next.LongestStreak < s.LongestStreak {
		return s, fmt.Errorf("%w: longestStreak cannot decrease", ErrInvalidPatch)
	}

	for _, d := range []struct {
		name string
		n    Nullable[string]
		dst  **string
	}{
		{"lastStreakUpdateDate", p.LastStreakUpdateDate, &next.LastStreakUpdateDate},
		{"nextAvailableDate", p.NextAvailableDate, &next.NextAvailableDate},
	} {
		if !d.n.Set {
			continue
		}
		if err := checkDate(d.name, d.n.Value); err != nil {
			return s, err
		}
		*d.dst = cloneStr(d.n.Value)
	}
	if p.CurrentGameID.Set {
		next.CurrentGameID = cloneStr(p.CurrentGameID.Value)
	}

	if p.ShownPhotoIDs.Set {
		next.ShownPhotoIDs = distinct(p.ShownPhotoIDs.Value)
	}
	if p.ShownMessageIDs.Set {
		next.ShownMessageIDs = distinct(p.ShownMessageIDs.Value)
	}
	if p.CollectedBadges.Set {
		next.CollectedBadges = distinct(p.CollectedBadges.Value)
	}
	if p.CollectedTickets.Set {
		next.CollectedTickets = distinct(p.CollectedTickets.Value)
	}
	if p.MoodReactions.Set {
		moods := make(map[string]string, len(p.MoodReactions.Value))
		for k, v := range p.MoodReactions.Value {
			if k == "" {
				return s, fmt.Errorf("%w: moodReactions key must not be empty", ErrInvalidPatch)
			}
			moods[k] = v
		}
		next.MoodReactions = moods
	}

	if p.DailyContent.Set {
		if err := applyDaily(&next.DailyContent, p.DailyContent.Value); err != nil {
			return s, err
		}
	}

	if next.Streak > next.LongestStreak {
		next.LongestStreak = next.Streak
	}
	return next, nil
}

func applyDaily(dst *DailyContent, p DailyContentPatch) error {
	for _, d := range []struct {
		name string
		n    Nullable[string]
		dst  **string
	}{
		{"dailyContent.date", p.Date, &dst.Date},
		{"dailyContent.cycleStartDate", p.CycleStartDate, &dst.CycleStartDate},
	} {
		if !d.n.Set {
			continue
		}
		if err := checkDate(d.name, d.n.Value); err != nil {
			return err
		}
		*d.dst = cloneStr(d.n.Value)
	}
	if p.PhotoID.Set {
		dst.PhotoID = cloneStr(p.PhotoID.Value)
	}
	if p.MessageID.Set {
		dst.MessageID = cloneStr(p.MessageID.Value)
	}
	if p.MinigameID.Set {
		dst.MinigameID = cloneStr(p.MinigameID.Value)
	}
	if p.IsSpecial.Set {
		dst.IsSpecial = p.IsSpecial.Value
	}
	return nil
}

func checkDate(name string, v *string) error {
	if v == nil {
		return nil
	}
	if _, err := ParseDate(*v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPatch, name, err)
	}
	return nil
}
