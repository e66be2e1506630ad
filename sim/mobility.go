// User movement: velocity integration with boundary reflection, occasional
// random re-direction, and hotspot attraction. Non-finite positions or
// velocities are reset to safe defaults instead of propagating.

package sim

import (
	"math"
	"math/rand"
)

// Hotspot is a point users occasionally drift toward.
type Hotspot struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// defaultHotspots mirrors the reference campus layout.
var defaultHotspots = []Hotspot{
	{X: 200, Y: 300, Radius: 40},
	{X: 800, Y: 500, Radius: 50},
	{X: 600, Y: 900, Radius: 60},
}

// MobilityModel advances user positions within their floor's bounding box.
type MobilityModel struct {
	cfg      MobilityConfig
	floors   map[int]*Floor
	hotspots []Hotspot
	rng      *rand.Rand
}

// NewMobilityModel builds a mobility model over the given floors, drawing
// randomness from the engine's mobility subsystem stream.
func NewMobilityModel(cfg MobilityConfig, floors []*Floor, rng *rand.Rand) *MobilityModel {
	byLevel := make(map[int]*Floor, len(floors))
	for _, f := range floors {
		byLevel[f.Level] = f
	}
	return &MobilityModel{cfg: cfg, floors: byLevel, hotspots: defaultHotspots, rng: rng}
}

// Move advances one user by one tick.
func (m *MobilityModel) Move(u *User) {
	floor := m.floors[u.Floor]

	if !finite(u.X, u.Y, u.VX, u.VY) {
		m.reset(u, floor)
	}

	if m.rng.Float64() < m.cfg.DirectionChangeProb {
		m.redirect(u)
	}

	if m.rng.Float64() < m.cfg.HotspotProb && len(m.hotspots) > 0 {
		m.steerToHotspot(u)
	}

	newX := u.X + u.VX
	newY := u.Y + u.VY

	if floor != nil {
		minX, minY, maxX, maxY := floor.Bounds()
		if newX < minX || newX > maxX {
			u.VX = -u.VX
			newX = math.Max(minX, math.Min(maxX, newX))
		}
		if newY < minY || newY > maxY {
			u.VY = -u.VY
			newY = math.Max(minY, math.Min(maxY, newY))
		}
	}

	u.X = newX
	u.Y = newY

	if floor != nil {
		if room := floor.RoomAt(u.X, u.Y); room != "" {
			u.Room = room
		}
	}
}

// redirect gives the user a fresh random heading and speed.
func (m *MobilityModel) redirect(u *User) {
	angle := m.rng.Float64() * 2 * math.Pi
	speed := m.cfg.SpeedMin + m.rng.Float64()*(m.cfg.SpeedMax-m.cfg.SpeedMin)
	u.VX = math.Cos(angle) * speed
	u.VY = math.Sin(angle) * speed
}

// steerToHotspot points the user's velocity at a random hotspot.
func (m *MobilityModel) steerToHotspot(u *User) {
	hs := m.hotspots[m.rng.Intn(len(m.hotspots))]
	dx := hs.X - u.X
	dy := hs.Y - u.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	speed := 0.5 + m.rng.Float64()*0.7
	u.VX = dx / dist * speed
	u.VY = dy / dist * speed
}

// reset substitutes safe defaults for corrupted position/velocity: the floor
// center and a random unit velocity.
func (m *MobilityModel) reset(u *User, floor *Floor) {
	if floor != nil {
		u.X, u.Y = floor.Center()
	} else {
		u.X, u.Y = 0, 0
	}
	angle := m.rng.Float64() * 2 * math.Pi
	u.VX = math.Cos(angle)
	u.VY = math.Sin(angle)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
