// Static floor and room geometry. The core consumes this read-only: it only
// bounds user movement and room membership.

package sim

// Room is an axis-aligned rectangle in floor-local coordinates.
type Room struct {
	Name   string  `json:"name" yaml:"name"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Contains reports whether (x, y) lies inside the room.
func (r Room) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Floor groups the rooms of one building level.
type Floor struct {
	Level int    `json:"level" yaml:"level"`
	Rooms []Room `json:"rooms" yaml:"rooms"`
}

// Bounds returns the bounding box of all rooms on the floor.
// An empty floor yields a zero box.
func (f *Floor) Bounds() (minX, minY, maxX, maxY float64) {
	if len(f.Rooms) == 0 {
		return 0, 0, 0, 0
	}
	first := f.Rooms[0]
	minX, minY = first.X, first.Y
	maxX, maxY = first.X+first.Width, first.Y+first.Height
	for _, r := range f.Rooms[1:] {
		minX = min(minX, r.X)
		minY = min(minY, r.Y)
		maxX = max(maxX, r.X+r.Width)
		maxY = max(maxY, r.Y+r.Height)
	}
	return minX, minY, maxX, maxY
}

// Center returns the midpoint of the floor's bounding box. Used as the safe
// default position when a user's coordinates go non-finite.
func (f *Floor) Center() (x, y float64) {
	minX, minY, maxX, maxY := f.Bounds()
	return (minX + maxX) / 2, (minY + maxY) / 2
}

// RoomAt returns the name of the room containing (x, y), or "" if none does.
func (f *Floor) RoomAt(x, y float64) string {
	for _, r := range f.Rooms {
		if r.Contains(x, y) {
			return r.Name
		}
	}
	return ""
}
