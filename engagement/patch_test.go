package engagement

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePatch(t *testing.T, raw string) Patch {
	t.Helper()
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestPatch_AbsentVersusNull(t *testing.T) {
	p := decodePatch(t, `{"streak": null, "currentGameId": null, "totalVisits": 3}`)

	assert.False(t, p.Streak.Set, "null on a counter is treated as absent")
	assert.True(t, p.CurrentGameID.Set)
	assert.Nil(t, p.CurrentGameID.Value)
	assert.True(t, p.TotalVisits.Set)
	assert.Equal(t, 3, p.TotalVisits.Value)
	assert.False(t, p.LastStreakUpdateDate.Set)
}

func TestPatch_UnknownFieldsIgnored(t *testing.T) {
	p := decodePatch(t, `{"theme": "dark", "streak": 2}`)
	assert.True(t, p.Streak.Set)
	assert.False(t, p.IsEmpty())

	assert.True(t, decodePatch(t, `{"theme": "dark"}`).IsEmpty())
}

func TestPatch_TypeMismatchRejected(t *testing.T) {
	var p Patch
	err := json.Unmarshal([]byte(`{"streak": "seven"}`), &p)
	assert.Error(t, err)
}

func TestApplyPatch_OnlyPresentFields(t *testing.T) {
	s := NewState()
	s.Streak = 3
	s.LongestStreak = 8
	s.TotalVisits = 20
	s.CurrentGameID = Str("memory")
	s.CollectedBadges = []string{"early-bird"}
	s.DailyContent = DailyContent{Date: Str(day0), PhotoID: Str("p1"), MessageID: Str("m1")}

	p := decodePatch(t, `{
		"streakFreezes": 2,
		"collectedTickets": ["cinema", "cinema", "zoo"],
		"dailyContent": {"photoId": "p9"}
	}`)
	got, err := ApplyPatch(s, p)
	require.NoError(t, err)

	assert.Equal(t, 2, got.StreakFreezes)
	assert.Equal(t, []string{"cinema", "zoo"}, got.CollectedTickets)
	assert.Equal(t, "p9", *got.DailyContent.PhotoID)

	assert.Equal(t, 3, got.Streak)
	assert.Equal(t, 8, got.LongestStreak)
	assert.Equal(t, 20, got.TotalVisits)
	assert.Equal(t, "memory", *got.CurrentGameID)
	assert.Equal(t, []string{"early-bird"}, got.CollectedBadges)
	assert.Equal(t, day0, *got.DailyContent.Date)
	assert.Equal(t, "m1", *got.DailyContent.MessageID)
}

func TestApplyPatch_NullClearsNullable(t *testing.T) {
	s := NewState()
	s.CurrentGameID = Str("memory")
	s.DailyContent.MinigameID = Str("memory")

	got, err := ApplyPatch(s, decodePatch(t, `{"currentGameId": null, "dailyContent": {"minigameId": null}}`))
	require.NoError(t, err)
	assert.Nil(t, got.CurrentGameID)
	assert.Nil(t, got.DailyContent.MinigameID)
}

func TestApplyPatch_RaisesLongestStreak(t *testing.T) {
	s := NewState()
	s.LongestStreak = 2

	got, err := ApplyPatch(s, Patch{Streak: Some(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, got.LongestStreak)
}

func TestApplyPatch_Rejections(t *testing.T) {
	base := NewState()
	base.FreezesUsed = 3
	base.TotalVisits = 10
	base.Streak = 4
	base.LongestStreak = 10

	tests := []struct {
		name  string
		patch Patch
	}{
		{"negative streak", Patch{Streak: Some(-1)}},
		{"negative freezes", Patch{StreakFreezes: Some(-2)}},
		{"freezesUsed decreases", Patch{FreezesUsed: Some(2)}},
		{"totalVisits decreases", Patch{TotalVisits: Some(9)}},
		{"longestStreak decreases", Patch{Streak: Some(1), LongestStreak: Some(1)}},
		{"bad date", Patch{LastStreakUpdateDate: Val("yesterday")}},
		{"bad daily date", Patch{DailyContent: Some(DailyContentPatch{Date: Val("2024-13-01")})}},
		{"empty mood key", Patch{MoodReactions: Some(map[string]string{"": "happy"})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyPatch(base, tt.patch)
			assert.ErrorIs(t, err, ErrInvalidPatch)
			assert.Equal(t, base, got)
		})
	}
}

func TestApplyPatch_ClearDate(t *testing.T) {
	s := NewState()
	s.NextAvailableDate = Str(day0)

	got, err := ApplyPatch(s, Patch{NextAvailableDate: Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, got.NextAvailableDate)
}
