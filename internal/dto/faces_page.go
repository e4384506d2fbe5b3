// FacesPage is a paginated response payload for the face crop list.
package dto

import "facecam/internal/model"

type FacesPage struct {
	Faces       []model.SavedFace `json:"faces"`
	FacesDir    string            `json:"facesDir"`
	Length      int               `json:"length"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	Limit       int               `json:"pageSize"`
}
