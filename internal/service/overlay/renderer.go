package overlay

import (
	"facecam/internal/service/dedup"
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

var (
	// SaveColor marks detections that were persisted in this frame.
	SaveColor = color.RGBA{0, 200, 0, 0}
	// WaitColor marks detections held back by the cooldown.
	WaitColor = color.RGBA{255, 220, 0, 0}

	panelColor    = color.RGBA{0, 0, 0, 0}
	savedColor    = color.RGBA{0, 255, 0, 0}
	detectedColor = color.RGBA{0, 255, 255, 0}
	timeColor     = color.RGBA{255, 255, 255, 0}
)

// PanelRect is the stats panel area in the top-left corner.
var PanelRect = image.Rect(10, 10, 420, 120)

const font = gocv.FontHersheySimplex

// Stats is the aggregate state shown on the panel.
type Stats struct {
	TotalSaved int
	Detecting  int
	Elapsed    time.Duration
}

// Render draws one box and label per decision and the stats panel onto frame.
func Render(frame *gocv.Mat, decisions []dedup.Decision, stats Stats) error {
	for _, d := range decisions {
		if err := drawDecision(frame, d); err != nil {
			return err
		}
	}
	return drawPanel(frame, stats)
}

func drawDecision(frame *gocv.Mat, d dedup.Decision) error {
	c, thickness := WaitColor, 2
	if d.Verdict == dedup.Save {
		c, thickness = SaveColor, 3
	}

	if err := gocv.Rectangle(frame, d.Box, c, thickness); err != nil {
		return fmt.Errorf("failed to draw box: %w", err)
	}
	label := image.Pt(d.Box.Min.X, d.Box.Min.Y-6)
	if err := gocv.PutText(frame, d.Verdict.String(), label, font, 0.6, c, 2); err != nil {
		return fmt.Errorf("failed to draw label: %w", err)
	}
	return nil
}

func drawPanel(frame *gocv.Mat, stats Stats) error {
	if err := gocv.Rectangle(frame, PanelRect, panelColor, -1); err != nil {
		return fmt.Errorf("failed to draw panel: %w", err)
	}

	lines := []struct {
		text  string
		at    image.Point
		scale float64
		c     color.RGBA
	}{
		{fmt.Sprintf("Total Saved: %d", stats.TotalSaved), image.Pt(20, 38), 0.75, savedColor},
		{fmt.Sprintf("Now Detecting: %d", stats.Detecting), image.Pt(20, 70), 0.75, detectedColor},
		{"Time: " + FormatElapsed(stats.Elapsed), image.Pt(20, 102), 0.65, timeColor},
	}
	for _, l := range lines {
		if err := gocv.PutText(frame, l.text, l.at, font, l.scale, l.c, 2); err != nil {
			return fmt.Errorf("failed to draw stats: %w", err)
		}
	}
	return nil
}

// FormatElapsed renders d as mm:ss; minutes are not wrapped into hours.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
