package engagement

// Advance counts a qualifying visit on today and returns the new snapshot.
//
// A visit on or before the last counted day is a no-op, so retries within a
// day never double count. A gap of more than one day is bridged with streak
// freezes when enough are available (one per missed day); otherwise the
// streak restarts at 1.
func Advance(s State, today string) (State, error) {
	if _, err := ParseDate(today); err != nil {
		return s, err
	}
	next := s.Clone()

	if s.LastStreakUpdateDate == nil {
		next.Streak++
	} else {
		gap, err := DaysBetween(*s.LastStreakUpdateDate, today)
		if err != nil {
			return s, err
		}
		if gap <= 0 {
			return next, nil
		}
		missed := gap - 1
		switch {
		case missed == 0:
			next.Streak++
		case next.StreakFreezes >= missed:
			next.StreakFreezes -= missed
			next.FreezesUsed += missed
			next.Streak++
		default:
			next.Streak = 1
		}
	}

	tomorrow, err := AddDays(today, 1)
	if err != nil {
		return s, err
	}
	next.LastStreakUpdateDate = Str(today)
	next.NextAvailableDate = Str(tomorrow)
	if next.Streak > next.LongestStreak {
		next.LongestStreak = next.Streak
	}
	next.TotalVisits++
	return next, nil
}

// CanAdvance reports whether a visit on today would be counted.
func CanAdvance(s State, today string) bool {
	if s.NextAvailableDate == nil {
		return true
	}
	return *s.NextAvailableDate <= today
}
