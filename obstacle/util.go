package obstacle

import "math"

func sqrt(v float64) float64 { return math.Sqrt(v) }

func sinDeg(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }

func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }
