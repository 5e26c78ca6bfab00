package ai

import "strings"

// WasteClasses is the vocabulary detector class indices are folded into.
var WasteClasses = []string{
	"plastic_bottle",
	"plastic_bag",
	"can",
	"cup",
	"straw",
	"wrapper",
	"container",
	"other_waste",
}

// Waste categories reported in every analysis.
const (
	CategoryPlastic     = "plastic"
	CategoryPaper       = "paper"
	CategoryMetal       = "metal"
	CategoryGlass       = "glass"
	CategoryOrganic     = "organic"
	CategoryHazardous   = "hazardous"
	CategoryElectronics = "electronics"
	CategoryOther       = "other"
)

// Categories lists every category key in display order.
var Categories = []string{
	CategoryPlastic,
	CategoryPaper,
	CategoryMetal,
	CategoryGlass,
	CategoryOrganic,
	CategoryHazardous,
	CategoryElectronics,
	CategoryOther,
}

// categoryKeywords is scanned in order; the first substring found in a class name wins.
// No WasteClasses entry matches paper, organic, hazardous or electronics, so those
// buckets stay at zero until the vocabulary grows matching names.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"bottle", CategoryPlastic},
	{"bag", CategoryPlastic},
	{"plastic", CategoryPlastic},
	{"can", CategoryMetal},
	{"cup", CategoryGlass},
	{"glass", CategoryGlass},
}

// ClassName maps a raw detector class index into WasteClasses by wrapping around.
// This is an approximation, not a calibrated label map.
func ClassName(index int) string {
	if index < 0 {
		index = -index
	}
	return WasteClasses[index%len(WasteClasses)]
}

// Categorize returns the category for a detected class name.
func Categorize(class string) string {
	for _, kw := range categoryKeywords {
		if strings.Contains(class, kw.keyword) {
			return kw.category
		}
	}
	return CategoryOther
}

// CategoryCounts is a histogram over Categories; every key is always present.
type CategoryCounts map[string]int

// NewCategoryCounts returns a histogram with all categories at zero.
func NewCategoryCounts() CategoryCounts {
	counts := make(CategoryCounts, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	return counts
}

// CountCategories builds the histogram for a set of detections.
func CountCategories(objects []DetectedObject) CategoryCounts {
	counts := NewCategoryCounts()
	for _, obj := range objects {
		counts[Categorize(obj.Class)]++
	}
	return counts
}

// Total sums every bucket.
func (c CategoryCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
