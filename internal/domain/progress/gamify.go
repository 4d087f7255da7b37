package progress

import "github.com/mfeldt/stencil/internal/domain/checklist"

// Gamification is the level/XP presentation view. Deterministic for a
// given snapshot: 10 XP per done applicable item plus a 50 XP bonus per
// fully completed, non-N/A section with at least one applicable item.
type Gamification struct {
	XP      int `json:"xp"`
	Level   int `json:"level"`
	Percent int `json:"percent"`
}

// Gamify computes the level/XP view from applicable counts.
func Gamify(p *checklist.Project) Gamification {
	counts := ApplicableCounts(p)
	xp := counts.Done * 10
	for _, view := range Sections(p) {
		if view.NA {
			continue
		}
		if view.Counts.Total > 0 && view.Counts.Done == view.Counts.Total {
			xp += 50
		}
	}
	pct := Percent(counts)
	return Gamification{XP: xp, Level: levelFor(pct), Percent: pct}
}

func levelFor(percent int) int {
	switch {
	case percent >= 100:
		return 5
	case percent >= 75:
		return 4
	case percent >= 50:
		return 3
	case percent >= 25:
		return 2
	default:
		return 1
	}
}
