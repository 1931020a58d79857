package obstacle

// DynamicObstaclesManager is the closed capability set both dynamic obstacle
// models satisfy; planners and the Executive depend only on this trait, not
// on the concrete binary or Gaussian representation.
type DynamicObstaclesManager interface {
	// CollisionCost returns the cost of being at (x,y) at time t. strict is
	// honoured by the binary model (inflated box) and ignored by the
	// Gaussian model, which has no notion of a hard boundary.
	CollisionCost(x, y, t float64, strict bool) float64
}

// CollisionCost adapts CollisionExists to the DynamicObstaclesManager trait.
func (b *BinaryDynamicObstaclesManager) CollisionCost(x, y, t float64, strict bool) float64 {
	return b.CollisionExists(x, y, t, strict)
}

var (
	_ DynamicObstaclesManager = (*BinaryDynamicObstaclesManager)(nil)
	_ DynamicObstaclesManager = (*GaussianDynamicObstaclesManager)(nil)
)
