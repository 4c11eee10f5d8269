package race

import "time"

// Course geometry. Positions are measured in course units from the starting
// line (0) to the finish line (CourseLength).
const (
	MaxRunners    = 10
	CourseLength  = 100.0
	DistanceScale = 1.0

	// StartOffset is where runners wait behind the line before the entry animation.
	StartOffset = -1.0
	// EntryDistance is how far the eased entry carries a runner.
	EntryDistance = 7.0 / 3.0
)

// Default race tuning.
const (
	defaultStartAnimation = 900 * time.Millisecond
	defaultMaxTickDelta   = 50 * time.Millisecond
	defaultBaseSpeedMin   = 8.6
	defaultBaseSpeedMax   = 10.0
	defaultMinSpeed       = 3.6
	defaultMaxSpeed       = 13.5
	defaultFocusHold      = 850 * time.Millisecond
	defaultViewportWidth  = 61.0
)

// Slow motion near the finish line.
const (
	slowMotionStart = 0.90
	slowMotionSpan  = 0.07
	slowMotionFloor = 0.55
)

// Status messages.
const (
	statusIdle     = "Waiting"
	statusGo       = "READY... GO!"
	statusNoNames  = "Add at least one name!"
	statusEventFmt = "Event! %s: %s"
	statusDoneFmt  = "Finished! Coffee is on %s"
)

// Tuning holds the numeric knobs of a race. The zero value is not useful;
// start from DefaultTuning.
type Tuning struct {
	BaseSpeedMin   float64
	BaseSpeedMax   float64
	MinSpeed       float64
	MaxSpeed       float64
	MaxTickDelta   time.Duration
	StartAnimation time.Duration
	FocusHold      time.Duration
	SlowMotion     bool
	ViewportWidth  float64
	Checkpoints    []float64
	Catalog        []Event
}

// DefaultTuning returns the stock coffee-run tuning.
func DefaultTuning() Tuning {
	return Tuning{
		BaseSpeedMin:   defaultBaseSpeedMin,
		BaseSpeedMax:   defaultBaseSpeedMax,
		MinSpeed:       defaultMinSpeed,
		MaxSpeed:       defaultMaxSpeed,
		MaxTickDelta:   defaultMaxTickDelta,
		StartAnimation: defaultStartAnimation,
		FocusHold:      defaultFocusHold,
		SlowMotion:     true,
		ViewportWidth:  defaultViewportWidth,
		Checkpoints:    DefaultCheckpoints(),
		Catalog:        DefaultCatalog(),
	}
}

// slowMotionFactor scales dt as the leader approaches the line.
func slowMotionFactor(progress float64) float64 {
	return lerp(1, slowMotionFloor, smoothstep((progress-slowMotionStart)/slowMotionSpan))
}
