package component

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	"github.com/robgonnella/plcscout/internal/ui/style"
)

const appText = `
 ██████╗ ██╗      ██████╗███████╗ ██████╗ ██████╗ ██╗   ██╗████████╗
 ██╔══██╗██║     ██╔════╝██╔════╝██╔════╝██╔═══██╗██║   ██║╚══██╔══╝
 ██████╔╝██║     ██║     ███████╗██║     ██║   ██║██║   ██║   ██║
 ██╔═══╝ ██║     ██║     ╚════██║██║     ██║   ██║██║   ██║   ██║
 ██║     ███████╗╚██████╗███████║╚██████╗╚██████╔╝╚██████╔╝   ██║
 ╚═╝     ╚══════╝ ╚═════╝╚══════╝ ╚═════╝ ╚═════╝  ╚═════╝    ╚═╝`

var legend = []string{
	"ctrl+e - emergency stop",
	"ctrl+r - reset stop and rescan",
	"tab - switch table focus",
	"ctrl+c - quit",
}

type Header struct {
	root       *tview.Flex
	legendCol1 *tview.Flex
	legendCol2 *tview.Flex
	status     *tview.TextView
}

func NewHeader(targets []string, protocols []string) *Header {
	h := &Header{}

	h.root = tview.NewFlex().SetDirection(tview.FlexRow)

	legendContainer := tview.NewFlex().SetDirection(tview.FlexColumn)

	h.legendCol1 = tview.NewFlex()

	h.legendCol2 = tview.NewFlex().SetDirection(tview.FlexRow)

	h.setDefaultLegend()

	legendContainer.AddItem(h.legendCol1, 70, 1, false)
	legendContainer.AddItem(h.legendCol2, 0, 1, false)

	h.root.AddItem(legendContainer, 0, 1, false)

	currentTarget := tview.NewTextView().
		SetText(
			fmt.Sprintf(
				"Network Targets: %s, Protocols: %s",
				strings.Join(targets, ","),
				strings.Join(protocols, ","),
			),
		)

	currentTarget.SetTextColor(style.ColorLightGreen)
	currentTarget.SetTextAlign(tview.AlignLeft)

	h.status = tview.NewTextView().SetText("status: idle")
	h.status.SetTextColor(style.ColorWhite)
	h.status.SetTextAlign(tview.AlignLeft)

	h.root.AddItem(currentTarget, 1, 1, false)
	h.root.AddItem(h.status, 1, 1, false)

	return h
}

func (h *Header) Primitive() tview.Primitive {
	return h.root
}

// SetStatus replaces the status line. Warnings are drawn in red.
func (h *Header) SetStatus(text string, warn bool) {
	h.status.SetText("status: " + text)

	if warn {
		h.status.SetTextColor(style.ColorRed)
		return
	}

	h.status.SetTextColor(style.ColorWhite)
}

func (h *Header) setDefaultLegend() {
	title := tview.NewTextView().
		SetText(appText).
		SetTextColor(style.ColorPurple)

	h.legendCol1.AddItem(title, 0, 1, false)

	h.legendCol2.AddItem(tview.NewTextView().SetText(""), 0, 1, false)

	for _, text := range legend {
		v := tview.NewTextView().SetText(text)
		v.SetTextColor(style.ColorOrange)
		v.SetTextAlign(tview.AlignLeft)
		h.legendCol2.AddItem(v, 0, 1, false)
	}
}
