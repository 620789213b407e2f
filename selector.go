package sped

// Thresholds are the adaptive complexity cut-offs. Comparisons are strict,
// so a complexity equal to a threshold lands in the lower tier.
type Thresholds struct {
	Enhanced float64 `yaml:"enhanced" json:"enhanced"`
	Hybrid   float64 `yaml:"hybrid" json:"hybrid"`
}

// Selection is the outcome of a mode decision.
type Selection struct {
	Path Path
	Tier Tier
}

// Selector maps a configured mode and an input complexity onto a Path.
// It holds no state and is safe for concurrent use.
type Selector struct {
	Thresholds Thresholds
}

// NewSelector creates a selector with the given thresholds.
func NewSelector(t Thresholds) Selector {
	return Selector{Thresholds: t}
}

// Select returns the path for a call.
func (s Selector) Select(mode Mode, complexity float64, resourceAvailable bool) Path {
	return s.Choose(mode, complexity, resourceAvailable).Path
}

// Choose returns the path and the tier for a call.
// Non-adaptive modes ignore complexity entirely.
func (s Selector) Choose(mode Mode, complexity float64, resourceAvailable bool) Selection {
	switch mode {
	case ModeClassical:
		return Selection{Path: PathBaseline, Tier: TierBaseline}
	case ModeQuantum:
		return Selection{Path: enhancedIf(resourceAvailable), Tier: TierEnhanced}
	case ModeHybrid:
		return Selection{Path: enhancedIf(resourceAvailable), Tier: TierHybrid}
	case ModeAdaptive:
		switch {
		case complexity > s.Thresholds.Enhanced && resourceAvailable:
			return Selection{Path: PathEnhanced, Tier: TierEnhanced}
		case complexity > s.Thresholds.Hybrid:
			return Selection{Path: enhancedIf(resourceAvailable), Tier: TierHybrid}
		default:
			return Selection{Path: PathBaseline, Tier: TierBaseline}
		}
	default:
		return Selection{Path: PathBaseline, Tier: TierBaseline}
	}
}

// Select applies the default thresholds.
func Select(mode Mode, complexity float64, resourceAvailable bool) Path {
	return NewSelector(DefaultThresholds).Select(mode, complexity, resourceAvailable)
}

// Choose applies the default thresholds and reports the tier.
func Choose(mode Mode, complexity float64, resourceAvailable bool) Selection {
	return NewSelector(DefaultThresholds).Choose(mode, complexity, resourceAvailable)
}

func enhancedIf(available bool) Path {
	if available {
		return PathEnhanced
	}
	return PathBaseline
}
