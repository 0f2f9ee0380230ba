package key

import "github.com/gdamore/tcell/v2"

/**
 * Keys and Runes!
 */

const (
	KeyCtrlC = tcell.KeyCtrlC
	KeyCtrlE = tcell.KeyCtrlE
	KeyCtrlR = tcell.KeyCtrlR
	KeyTab   = tcell.KeyTab
	KeyEsc   = tcell.KeyEsc
)
