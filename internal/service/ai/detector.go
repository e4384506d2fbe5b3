package ai

import (
	"facecam/internal/config"
	"facecam/internal/logger"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

const (
	// ScaleFactor is the default image pyramid step for the cascade.
	ScaleFactor = 1.1
	// MinNeighbors is the default number of neighbours a candidate needs.
	MinNeighbors = 4
	// MinFaceSize is the default smallest face edge in pixels.
	MinFaceSize = 60
)

// Detector finds faces on a single-channel frame.
type Detector interface {
	Detect(gray gocv.Mat) []image.Rectangle
}

// CascadeDetector runs a Haar cascade classifier.
type CascadeDetector struct {
	classifier   gocv.CascadeClassifier
	cascadePath  string
	scaleFactor  float64
	minNeighbors int
	minSize      image.Point
	logger       *logger.Logger
}

// NewCascadeDetector loads the cascade from config.CascadePath.
func NewCascadeDetector(config *config.Config, logger *logger.Logger) (*CascadeDetector, error) {
	d := &CascadeDetector{
		cascadePath:  config.CascadePath,
		scaleFactor:  config.DetectScaleFactor,
		minNeighbors: config.DetectMinNeighbors,
		minSize:      image.Pt(config.DetectMinSize, config.DetectMinSize),
		logger:       logger,
	}
	if d.scaleFactor <= 1 {
		d.scaleFactor = ScaleFactor
	}
	if d.minNeighbors <= 0 {
		d.minNeighbors = MinNeighbors
	}

	if err := d.initializeClassifier(); err != nil {
		return nil, err
	}
	return d, nil
}

// initializeClassifier loads the cascade file.
func (d *CascadeDetector) initializeClassifier() error {
	if _, err := os.Stat(d.cascadePath); os.IsNotExist(err) {
		return fmt.Errorf("cascade file not found: %s", d.cascadePath)
	}

	d.classifier = gocv.NewCascadeClassifier()
	if !d.classifier.Load(d.cascadePath) {
		d.classifier.Close()
		return fmt.Errorf("failed to load Haar cascade: %s", d.cascadePath)
	}

	d.logger.Info("Face cascade loaded from %s", d.cascadePath)
	return nil
}

// Detect returns face bounding boxes in classifier order.
func (d *CascadeDetector) Detect(gray gocv.Mat) []image.Rectangle {
	return d.classifier.DetectMultiScaleWithParams(gray, d.scaleFactor, d.minNeighbors, 0, d.minSize, image.Point{})
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}

// ToGray converts a BGR frame into dst.
func ToGray(frame gocv.Mat, dst *gocv.Mat) error {
	if err := gocv.CvtColor(frame, dst, gocv.ColorBGRToGray); err != nil {
		return fmt.Errorf("failed to convert image to grayscale: %w", err)
	}
	return nil
}
