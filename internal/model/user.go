package model

import "time"

// User holds a participant's carbon point balance.
type User struct {
	ID           string    `json:"id"`
	CarbonPoints int       `json:"carbonPoints"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
