// CleanupFilters narrow the cleanup list.
package dto

type CleanupFilters struct {
	Status string
	UserID string
	Limit  int
	Offset int
}
