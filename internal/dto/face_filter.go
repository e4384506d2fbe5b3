// FaceFilter narrows the list of indexed face crops.
package dto

import "time"

type FaceFilter struct {
	RunID     string
	Session   int
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}
