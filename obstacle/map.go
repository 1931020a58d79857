// Package obstacle implements static-map occupancy queries and dynamic
// obstacle collision-cost models (binary footprints and 2D Gaussian cost
// fields projected through time).
package obstacle

import (
	"bufio"
	"os"
	"strings"

	geo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"
)

// ErrMapLoad is returned by LoadMap on any I/O or parse failure; the
// map-loader worker swallows it, keeping the previously loaded map.
var ErrMapLoad = errors.New("obstacle: map load failed")

// ErrUnsupportedMapFormat is returned for map paths that don't end in
// ".map". Full GeoTIFF decoding is out of scope for this repository; no
// GeoTIFF library is available to ground a real decoder on.
var ErrUnsupportedMapFormat = errors.New("obstacle: unsupported map format (GeoTIFF decoding not implemented)")

// Map is a static occupancy grid queried in local Cartesian metres. Cell
// (0,0) is anchored at OriginX, OriginY with CellSize metres per cell.
type Map struct {
	Blocked  [][]bool
	OriginX  float64
	OriginY  float64
	CellSize float64
}

// EmptyMap returns a Map with no blocked cells, used when the configured map
// path is empty.
func EmptyMap() *Map {
	return &Map{CellSize: 1}
}

// IsBlocked reports whether (x,y) falls in a blocked cell. Points outside
// the grid bounds are reported as unblocked (unmapped is assumed free).
func (m *Map) IsBlocked(x, y float64) bool {
	if m == nil || len(m.Blocked) == 0 {
		return false
	}
	col := int((x - m.OriginX) / m.CellSize)
	row := int((y - m.OriginY) / m.CellSize)
	if row < 0 || row >= len(m.Blocked) || col < 0 || col >= len(m.Blocked[row]) {
		return false
	}
	return m.Blocked[row][col]
}

// DistanceToNearestBlocked returns the Euclidean distance from (x,y) to the
// nearest blocked cell center, searching outward in a bounded ring up to
// maxCells. Returns (distance, true) if a blocked cell was found within
// range, else (0, false).
func (m *Map) DistanceToNearestBlocked(x, y float64, maxCells int) (float64, bool) {
	if m == nil || len(m.Blocked) == 0 {
		return 0, false
	}
	col := int((x - m.OriginX) / m.CellSize)
	row := int((y - m.OriginY) / m.CellSize)
	best := -1.0
	for r := row - maxCells; r <= row+maxCells; r++ {
		if r < 0 || r >= len(m.Blocked) {
			continue
		}
		for c := col - maxCells; c <= col+maxCells; c++ {
			if c < 0 || c >= len(m.Blocked[r]) || !m.Blocked[r][c] {
				continue
			}
			cx := m.OriginX + (float64(c)+0.5)*m.CellSize
			cy := m.OriginY + (float64(r)+0.5)*m.CellSize
			dx, dy := x-cx, y-cy
			d := dx*dx + dy*dy
			if best < 0 || d < best {
				best = d
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return sqrt(best), true
}

// LoadMap loads a map from path. Paths ending in ".map" are parsed as an
// ASCII occupancy grid (one line per row, one character per cell; '#' or '1'
// is blocked, any other character is free; blank lines are skipped). For
// such a grid lat/lon anchors the origin via a great-circle offset from a
// fixed reference meridian. Any other non-empty path is treated as a GeoTIFF
// reference and returns ErrUnsupportedMapFormat. An empty path yields an
// EmptyMap.
func LoadMap(path string, lat, lon float64, cellSize float64) (*Map, error) {
	if path == "" {
		return EmptyMap(), nil
	}
	if !strings.HasSuffix(path, ".map") {
		return nil, ErrUnsupportedMapFormat
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrMapLoad, err.Error())
	}
	defer f.Close()

	var rows [][]bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		row := make([]bool, len(line))
		for i, c := range line {
			row[i] = c == '#' || c == '1'
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(ErrMapLoad, err.Error())
	}

	originX, originY := anchorFromLatLon(lat, lon)
	return &Map{Blocked: rows, OriginX: originX, OriginY: originY, CellSize: cellSize}, nil
}

// refMeridian is an arbitrary fixed reference point; only offsets between
// anchors matter for local Cartesian placement, not absolute geodesy.
var refMeridian = geo.NewPoint(0, 0)

// anchorFromLatLon converts a (lat, lon) georeference into a local
// Cartesian offset from refMeridian, in metres, using great-circle distance
// and bearing. This is the extent to which GeoTIFF georeferencing is
// honoured without a real GeoTIFF decoder.
func anchorFromLatLon(lat, lon float64) (x, y float64) {
	if lat == 0 && lon == 0 {
		return 0, 0
	}
	p := geo.NewPoint(lat, lon)
	distKm := refMeridian.GreatCircleDistance(p)
	bearing := refMeridian.BearingTo(p)
	distM := distKm * 1000
	x = distM * sinDeg(bearing)
	y = distM * cosDeg(bearing)
	return x, y
}
