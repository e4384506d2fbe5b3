package dedup

import (
	"facecam/internal/logger"
	"facecam/internal/model"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
)

const (
	// GridSize is the default bucket edge in pixels.
	GridSize = 80
	// Cooldown is the default minimum time between saves of one bucket.
	Cooldown = 2 * time.Second
	// Padding is the default crop expansion around a detection in pixels.
	Padding = 15
)

// GridKey identifies the coarse spatial bucket of a detection's top-left corner.
type GridKey struct {
	X int
	Y int
}

// KeyFor buckets the top-left corner of box.
func KeyFor(box image.Rectangle, gridSize int) GridKey {
	return GridKey{X: floorDiv(box.Min.X, gridSize), Y: floorDiv(box.Min.Y, gridSize)}
}

func (k GridKey) String() string {
	return fmt.Sprintf("%d_%d", k.X, k.Y)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Verdict is the outcome for a single detection.
type Verdict int

const (
	Wait Verdict = iota
	Save
)

func (v Verdict) String() string {
	if v == Save {
		return "SAVED"
	}
	return "WAIT"
}

// Decision is the per-detection result, also used as the overlay directive.
type Decision struct {
	Box     image.Rectangle
	Key     GridKey
	Verdict Verdict
	Crop    image.Rectangle
	Face    *model.SavedFace
}

// Saver persists a crop of frame.
type Saver interface {
	Save(frame gocv.Mat, crop image.Rectangle, index int, at time.Time) (*model.SavedFace, error)
}

// Grid decides which detections are saved, per bucket and cooldown.
// It is used from the frame loop only and does no locking.
type Grid struct {
	table    CooldownTable
	saver    Saver
	gridSize int
	cooldown time.Duration
	padding  int
	logger   *logger.Logger
}

// NewGrid creates a Grid. Zero sizes fall back to the package defaults.
func NewGrid(table CooldownTable, saver Saver, gridSize int, cooldown time.Duration, padding int, logger *logger.Logger) *Grid {
	if gridSize <= 0 {
		gridSize = GridSize
	}
	if padding < 0 {
		padding = Padding
	}
	return &Grid{
		table:    table,
		saver:    saver,
		gridSize: gridSize,
		cooldown: cooldown,
		padding:  padding,
		logger:   logger,
	}
}

// Classify processes detections in detector order. Accepted saves increment
// *saved, which also provides the 1-based crop index. Several detections in
// one bucket yield at most one save, because the first save's timestamp is
// visible to the rest.
func (g *Grid) Classify(frame gocv.Mat, detections []image.Rectangle, now time.Time, saved *int) []Decision {
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	decisions := make([]Decision, 0, len(detections))

	for _, box := range detections {
		d := Decision{Box: box, Key: KeyFor(box, g.gridSize), Verdict: Wait}

		if g.ready(d.Key, now) {
			d.Crop = CropRegion(box, g.padding, bounds)
			if d.Crop.Empty() {
				g.logger.Warning("Detection %v lies outside the %v frame", box, bounds)
				decisions = append(decisions, d)
				continue
			}

			face, err := g.saver.Save(frame, d.Crop, *saved+1, now)
			if err != nil {
				g.logger.Error("Failed to save face crop: %v", err)
				decisions = append(decisions, d)
				continue
			}

			g.table.Mark(d.Key, now)
			*saved++
			d.Verdict = Save
			d.Face = face
		}

		decisions = append(decisions, d)
	}

	return decisions
}

// Tracked returns the number of buckets in the cooldown table.
func (g *Grid) Tracked() int {
	return g.table.Len()
}

// ready reports whether key has never been saved or its cooldown has elapsed.
func (g *Grid) ready(key GridKey, now time.Time) bool {
	last, ok := g.table.Last(key)
	return !ok || now.Sub(last) > g.cooldown
}

// CropRegion expands box by padding and clamps it to bounds.
func CropRegion(box image.Rectangle, padding int, bounds image.Rectangle) image.Rectangle {
	return box.Inset(-padding).Intersect(bounds)
}
