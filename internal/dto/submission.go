package dto

// ReportSubmission is a parsed report upload. Validation tags are checked by the
// review manager; form names are reported back in validation errors.
type ReportSubmission struct {
	UserID       string  `form:"userId" validate:"required,max=128"`
	Latitude     float64 `form:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `form:"longitude" validate:"gte=-180,lte=180"`
	LocationName string  `form:"locationName" validate:"max=255"`
	Description  string  `form:"description" validate:"max=2000"`
	WasteType    string  `form:"wasteType" validate:"max=64"`
	Severity     int     `form:"severity"`
	Photo        []byte  `form:"photo" validate:"required,min=1"`
}

// CleanupSubmission is a parsed cleanup upload; the before photo comes from the report.
type CleanupSubmission struct {
	UserID   string `form:"userId" validate:"required,max=128"`
	ReportID string `form:"reportId" validate:"required"`
	Photo    []byte `form:"photo" validate:"required,min=1"`
}
