package engagement

// Rand is the random source used for content selection. *math/rand.Rand
// satisfies it; tests inject a seeded one.
type Rand interface {
	Intn(n int) int
}

// Pools supplies the candidate identifiers for daily content.
type Pools struct {
	Photos    []string
	Messages  []string
	Minigames []string
	// Special reports whether a calendar day is a special occasion. Nil means
	// no day is special.
	Special func(day string) bool
}

// SelectForDate assigns the content for today.
//
// Calling it again on the same day returns the stored assignment untouched.
// Photos and messages are drawn from the part of the pool not yet shown in
// the current cycle; once a pool is exhausted its shown set is cleared and a
// new cycle starts on today. Photo and message cycles run independently.
// Minigames are drawn from the full pool and may repeat.
func SelectForDate(s State, today string, pools Pools, rng Rand) (DailyContent, State, error) {
	if _, err := ParseDate(today); err != nil {
		return s.DailyContent, s, err
	}
	next := s.Clone()
	if stored := s.DailyContent.Date; stored != nil && *stored >= today {
		return next.DailyContent, next, nil
	}

	cycleStart := cloneStr(s.DailyContent.CycleStartDate)
	if cycleStart == nil {
		cycleStart = Str(today)
	}

	photo, shownPhotos, photoReset := pickUnshown(pools.Photos, s.ShownPhotoIDs, rng)
	message, shownMessages, messageReset := pickUnshown(pools.Messages, s.ShownMessageIDs, rng)
	if photoReset || messageReset {
		cycleStart = Str(today)
	}
	next.ShownPhotoIDs = shownPhotos
	next.ShownMessageIDs = shownMessages

	var minigame *string
	if games := distinct(pools.Minigames); len(games) > 0 {
		minigame = Str(games[rng.Intn(len(games))])
	}

	next.DailyContent = DailyContent{
		Date:           Str(today),
		CycleStartDate: cycleStart,
		PhotoID:        photo,
		MessageID:      message,
		MinigameID:     minigame,
		IsSpecial:      pools.Special != nil && pools.Special(today),
	}
	return next.DailyContent, next, nil
}

// pickUnshown draws one id from pool \ shown. When nothing is left the cycle
// restarts: shown is cleared before drawing and reset is true. An empty pool
// yields no id and leaves shown untouched.
func pickUnshown(pool, shown []string, rng Rand) (id *string, nextShown []string, reset bool) {
	pool = distinct(pool)
	nextShown = cloneSlice(shown)
	if len(pool) == 0 {
		return nil, nextShown, false
	}

	seen := make(map[string]struct{}, len(shown))
	for _, v := range shown {
		seen[v] = struct{}{}
	}
	available := make([]string, 0, len(pool))
	for _, v := range pool {
		if _, ok := seen[v]; !ok {
			available = append(available, v)
		}
	}
	if len(available) == 0 {
		available = pool
		nextShown = []string{}
		reset = true
	}

	pick := available[rng.Intn(len(available))]
	nextShown = append(nextShown, pick)
	return Str(pick), nextShown, reset
}

func distinct(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
