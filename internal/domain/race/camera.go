package race

// Camera tuning.
const (
	cameraLead   = 0.35
	cameraMargin = 40.0 / 18.0
	cameraFollow = 0.10
	zoomMax      = 1.35
	zoomStart    = 0.92
	zoomSpan     = 0.08
	zoomRelax    = 0.12
)

// Camera follows the focal runner along the course. X is the left edge of
// the viewport in course units.
type Camera struct {
	X        float64 `json:"x"`
	Zoom     float64 `json:"zoom"`
	Target   int     `json:"target_lane"`
	viewport float64
}

func newCamera(viewport float64) Camera {
	return Camera{Zoom: 1, Target: -1, viewport: viewport}
}

// ViewWidth is the visible course span at the current zoom.
func (c *Camera) ViewWidth() float64 {
	return c.viewport / c.Zoom
}

// zoomFor ramps zoom in as the leader nears the line.
func (c *Camera) zoomFor(progress float64) {
	c.Zoom = lerp(1, zoomMax, smoothstep((progress-zoomStart)/zoomSpan))
}

// relax eases zoom back to 1 outside a race.
func (c *Camera) relax() {
	c.Zoom = lerp(c.Zoom, 1, zoomRelax)
}

// pursue moves a fixed fraction of the remaining distance toward the framing
// position for x, keeping x at cameraLead of the narrowed viewport.
func (c *Camera) pursue(lane int, x float64) {
	view := c.ViewWidth()
	goal := clamp(x-view*cameraLead, -cameraMargin, CourseLength-view+cameraMargin)
	c.X += (goal - c.X) * cameraFollow
	c.Target = lane
}

func (c *Camera) reset() {
	c.X = 0
	c.Zoom = 1
	c.Target = -1
}
