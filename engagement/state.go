// Package engagement holds the per-visitor engagement model and the pure
// transformations applied to it: streak advancement, daily content rotation
// and partial-update merging. Nothing in this package touches storage.
package engagement

// State is the durable gamification record of one identity.
type State struct {
	Streak               int               `json:"streak"`
	LongestStreak        int               `json:"longestStreak"`
	StreakFreezes        int               `json:"streakFreezes"`
	FreezesUsed          int               `json:"freezesUsed"`
	LastStreakUpdateDate *string           `json:"lastStreakUpdateDate"`
	NextAvailableDate    *string           `json:"nextAvailableDate"`
	TotalVisits          int               `json:"totalVisits"`
	CurrentGameID        *string           `json:"currentGameId"`
	ShownPhotoIDs        []string          `json:"shownPhotoIds"`
	ShownMessageIDs      []string          `json:"shownMessageIds"`
	CollectedBadges      []string          `json:"collectedBadges"`
	CollectedTickets     []string          `json:"collectedTickets"`
	MoodReactions        map[string]string `json:"moodReactions"`
	DailyContent         DailyContent      `json:"dailyContent"`
}

// DailyContent is the content assigned to a single calendar day.
type DailyContent struct {
	Date           *string `json:"date"`
	CycleStartDate *string `json:"cycleStartDate"`
	PhotoID        *string `json:"photoId"`
	MessageID      *string `json:"messageId"`
	MinigameID     *string `json:"minigameId"`
	IsSpecial      bool    `json:"isSpecial"`
}

// NewState returns the zero-value record materialized for unseen identities.
func NewState() State {
	return State{
		ShownPhotoIDs:    []string{},
		ShownMessageIDs:  []string{},
		CollectedBadges:  []string{},
		CollectedTickets: []string{},
		MoodReactions:    map[string]string{},
	}
}

// Clone returns a deep copy so callers can derive a new snapshot without
// aliasing the slices and maps of the original.
func (s State) Clone() State {
	out := s
	out.LastStreakUpdateDate = cloneStr(s.LastStreakUpdateDate)
	out.NextAvailableDate = cloneStr(s.NextAvailableDate)
	out.CurrentGameID = cloneStr(s.CurrentGameID)
	out.ShownPhotoIDs = cloneSlice(s.ShownPhotoIDs)
	out.ShownMessageIDs = cloneSlice(s.ShownMessageIDs)
	out.CollectedBadges = cloneSlice(s.CollectedBadges)
	out.CollectedTickets = cloneSlice(s.CollectedTickets)
	if s.MoodReactions != nil {
		out.MoodReactions = make(map[string]string, len(s.MoodReactions))
		for k, v := range s.MoodReactions {
			out.MoodReactions[k] = v
		}
	}
	out.DailyContent = s.DailyContent.clone()
	return out
}

func (d DailyContent) clone() DailyContent {
	return DailyContent{
		Date:           cloneStr(d.Date),
		CycleStartDate: cloneStr(d.CycleStartDate),
		PhotoID:        cloneStr(d.PhotoID),
		MessageID:      cloneStr(d.MessageID),
		MinigameID:     cloneStr(d.MinigameID),
		IsSpecial:      d.IsSpecial,
	}
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Str is a small helper for building optional identifiers and dates.
func Str(s string) *string { return &s }
