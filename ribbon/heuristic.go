package ribbon

// HeuristicKind selects how Manager.HeuristicCost estimates cost-to-go. The
// numeric values match the wire configuration's heuristic key (0..4).
type HeuristicKind int

const (
	MaxDistance HeuristicKind = iota
	TspPointRobotNoSplitAllRibbons
	TspPointRobotNoSplitKRibbons
	TspDubinsNoSplitAllRibbons
	TspDubinsNoSplitKRibbons
)

func (k HeuristicKind) String() string {
	switch k {
	case MaxDistance:
		return "MaxDistance"
	case TspPointRobotNoSplitAllRibbons:
		return "TspPointRobotNoSplitAllRibbons"
	case TspPointRobotNoSplitKRibbons:
		return "TspPointRobotNoSplitKRibbons"
	case TspDubinsNoSplitAllRibbons:
		return "TspDubinsNoSplitAllRibbons"
	case TspDubinsNoSplitKRibbons:
		return "TspDubinsNoSplitKRibbons"
	default:
		return "?"
	}
}

// usesDubins reports whether a heuristic kind weights edges by Dubins arc
// length rather than straight-line distance.
func (k HeuristicKind) usesDubins() bool {
	return k == TspDubinsNoSplitAllRibbons || k == TspDubinsNoSplitKRibbons
}

// isKRestricted reports whether a heuristic kind restricts the TSP to the K
// nearest ribbons rather than all uncovered ribbons.
func (k HeuristicKind) isKRestricted() bool {
	return k == TspPointRobotNoSplitKRibbons || k == TspDubinsNoSplitKRibbons
}
