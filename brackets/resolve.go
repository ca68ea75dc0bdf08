package brackets

import "github.com/Dosada05/fjj-brasileirao/models"

// Winner returns the team that advances from a played match: the higher
// score, or the recorded penalty winner when the score is level.
func Winner(m *models.Match) (string, bool) {
	hs, as, played := m.Score()
	if !played {
		return "", false
	}
	home, away, ok := m.Teams()
	if !ok {
		return "", false
	}
	switch {
	case hs > as:
		return home, true
	case as > hs:
		return away, true
	case m.PenaltyWinnerID != nil && (*m.PenaltyWinnerID == home || *m.PenaltyWinnerID == away):
		return *m.PenaltyWinnerID, true
	}
	return "", false
}

// ResolveSlots recomputes every side fed by a source match. A side whose
// source has no winner yet goes back to pending. The input is not modified;
// changed reports whether the copy differs from it.
func ResolveSlots(m *models.Match, byID map[string]*models.Match) (resolved *models.Match, changed bool) {
	cp := *m
	cp.HomeTeamID, changed = resolveSide(m.HomeTeamID, m.HomeSourceMatchID, byID)
	var awayChanged bool
	cp.AwayTeamID, awayChanged = resolveSide(m.AwayTeamID, m.AwaySourceMatchID, byID)
	return &cp, changed || awayChanged
}

func resolveSide(current, source *string, byID map[string]*models.Match) (*string, bool) {
	if source == nil {
		return current, false
	}
	src, ok := byID[*source]
	if !ok {
		return current, false
	}
	var next *string
	if w, ok := Winner(src); ok {
		next = &w
	}
	return next, !sameTeam(current, next)
}

func sameTeam(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ResolveAll returns the matches with knockout slots resolved.
func ResolveAll(matches []*models.Match) []*models.Match {
	byID := IndexByID(matches)
	out := make([]*models.Match, len(matches))
	for i, m := range matches {
		out[i], _ = ResolveSlots(m, byID)
	}
	return out
}

func IndexByID(matches []*models.Match) map[string]*models.Match {
	byID := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	return byID
}

// Dependents returns the matches with a side fed by matchID.
func Dependents(matchID string, matches []*models.Match) []*models.Match {
	var deps []*models.Match
	for _, m := range matches {
		if (m.HomeSourceMatchID != nil && *m.HomeSourceMatchID == matchID) ||
			(m.AwaySourceMatchID != nil && *m.AwaySourceMatchID == matchID) {
			deps = append(deps, m)
		}
	}
	return deps
}

// SourcesPlayed reports whether every source match feeding m has been played.
func SourcesPlayed(m *models.Match, byID map[string]*models.Match) bool {
	for _, src := range []*string{m.HomeSourceMatchID, m.AwaySourceMatchID} {
		if src == nil {
			continue
		}
		sm, ok := byID[*src]
		if !ok || !sm.Played {
			return false
		}
	}
	return true
}
