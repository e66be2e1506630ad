// A roaming load injector used to stress the rebalancing path. From the
// engine's point of view it is an external mutation source: it piles load
// onto nearby APs and the next overload detection reacts to it.

package sim

import "math"

// Disruptor injects load onto every AP within ImpactRadius on its floor
// while deployed. Movement is driven externally (SetVelocity) and clamped to
// the floor's bounding box.
type Disruptor struct {
	Active bool    `json:"active"`
	Floor  int     `json:"floor"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`

	Speed        float64 `json:"speed"`
	ImpactRadius float64 `json:"impact_radius"`
	LoadPerTick  float64 `json:"load_per_tick"`
}

// NewDisruptor returns an inactive disruptor with the reference tuning.
func NewDisruptor() *Disruptor {
	return &Disruptor{
		Floor:        1,
		Speed:        4,
		ImpactRadius: 180,
		LoadPerTick:  10,
	}
}

// Deploy activates the disruptor with zeroed velocity.
func (d *Disruptor) Deploy() {
	d.Active = true
	d.VX = 0
	d.VY = 0
}

// Withdraw deactivates the disruptor.
func (d *Disruptor) Withdraw() {
	d.Active = false
}

// SetFloor moves the disruptor to another floor and re-centers it there.
func (d *Disruptor) SetFloor(level int, floor *Floor) {
	d.Floor = level
	if floor != nil {
		d.X, d.Y = floor.Center()
	}
}

// SetVelocity sets the direction of travel; the magnitude scales by Speed.
func (d *Disruptor) SetVelocity(vx, vy float64) {
	d.VX = vx
	d.VY = vy
}

// Update advances position and injects load onto in-range same-floor APs.
// Non-finite coordinates re-center instead of spreading.
func (d *Disruptor) Update(floor *Floor, aps []*AccessPoint) {
	if !d.Active {
		return
	}

	d.X += d.VX * d.Speed
	d.Y += d.VY * d.Speed

	if !finite(d.X, d.Y) && floor != nil {
		d.X, d.Y = floor.Center()
	}

	if floor != nil {
		minX, minY, maxX, maxY := floor.Bounds()
		const pad = 8
		d.X = math.Max(minX+pad, math.Min(maxX-pad, d.X))
		d.Y = math.Max(minY+pad, math.Min(maxY-pad, d.Y))
	}

	for _, ap := range aps {
		if ap.Floor != d.Floor {
			continue
		}
		if Distance(d.X, d.Y, ap.X, ap.Y) < d.ImpactRadius {
			ap.Load += d.LoadPerTick
		}
	}
}
