package dto

// ReviewRequest is an admin decision on a report or cleanup.
type ReviewRequest struct {
	Approved   bool   `json:"approved"`
	AdminNotes string `json:"adminNotes"`
}
