package footnote

import (
	"fmt"
	"time"
)

// RegimeType translates a democracy index into its classification label.
func RegimeType(index float64) string {
	var regime string
	switch {
	case index > 8:
		regime = "full democracy"
	case index > 6:
		regime = "flawed democracy"
	case index > 4:
		regime = "hybrid regime"
	default:
		regime = "authoritarian regime"
	}
	return fmt.Sprintf("Democracy index: %.2f, %v", index, regime)
}

// InceptionText formats an inception date with its age.
func InceptionText(inception time.Time) string {
	years := int(time.Since(inception).Hours() / 24 / 365.2425)
	return fmt.Sprintf("Inception: %v (%v years ago)", inception.Format("2 January 2006"), years)
}
