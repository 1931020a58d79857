package dubins

// WirePlan is the over-the-wire representation of a Plan, field names
// preserved from the upstream transport contract where compatibility
// matters.
type WirePlan struct {
	Paths   []WirePath `json:"paths"`
	EndTime float64    `json:"endtime"`
}

// WirePath is the over-the-wire representation of a single Segment.
type WirePath struct {
	InitialX   float64 `json:"initial_x"`
	InitialY   float64 `json:"initial_y"`
	InitialYaw float64 `json:"initial_yaw"`
	Length0    float64 `json:"length0"`
	Length1    float64 `json:"length1"`
	Length2    float64 `json:"length2"`
	Type       int     `json:"type"`
	Rho        float64 `json:"rho"`
	Speed      float64 `json:"speed"`
	StartTime  float64 `json:"start_time"`
}

// ToWire converts a Plan to its wire representation.
func (p Plan) ToWire() WirePlan {
	wp := WirePlan{EndTime: p.EndTime()}
	for _, s := range p.Segments {
		wp.Paths = append(wp.Paths, WirePath{
			InitialX:   s.Qi[0],
			InitialY:   s.Qi[1],
			InitialYaw: s.Qi[2],
			Length0:    s.Path.Params[0],
			Length1:    s.Path.Params[1],
			Length2:    s.Path.Params[2],
			Type:       int(s.Path.Type),
			Rho:        s.Path.Rho,
			Speed:      s.Speed,
			StartTime:  s.Start,
		})
	}
	return wp
}

// FromWire reconstructs a Plan from its wire representation.
func FromWire(wp WirePlan) Plan {
	p := Plan{}
	for _, wpath := range wp.Paths {
		seg := Segment{
			Qi: [3]float64{wpath.InitialX, wpath.InitialY, wpath.InitialYaw},
			Path: CandidatePath{
				Type:        PathType(wpath.Type),
				Params:      [3]float64{wpath.Length0, wpath.Length1, wpath.Length2},
				Rho:         wpath.Rho,
				TotalLength: wpath.Rho * (wpath.Length0 + wpath.Length1 + wpath.Length2),
			},
			Speed: wpath.Speed,
			Start: wpath.StartTime,
		}
		p.Append(seg)
	}
	return p
}
