package style

import "github.com/gdamore/tcell/v2"

/**
 * Styles and Colors!
 */

const (
	ColorDefault     = tcell.ColorDefault
	ColorWhite       = tcell.ColorWhite
	ColorPurple      = tcell.ColorMediumPurple
	ColorLightGreen  = tcell.ColorLightSeaGreen
	ColorMediumGreen = tcell.ColorMediumSeaGreen
	ColorOrange      = tcell.ColorOrange
	ColorRed         = tcell.ColorRed
	ColorDimGrey     = tcell.ColorDimGrey
)

var (
	StyleDefault = tcell.StyleDefault
)

// ConfidenceColor colors a confidence score from dim to green
func ConfidenceColor(score float64) tcell.Color {
	switch {
	case score >= 0.7:
		return ColorMediumGreen
	case score >= 0.4:
		return ColorOrange
	default:
		return ColorDimGrey
	}
}
