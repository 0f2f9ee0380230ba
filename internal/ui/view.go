package ui

import (
	"fmt"

	"github.com/rivo/tview"
	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/robgonnella/plcscout/internal/event"
	"github.com/robgonnella/plcscout/internal/ui/component"
)

type view struct {
	root        *tview.Flex
	header      *component.Header
	deviceTable *component.DeviceTable
	eventTable  *component.EventTable
	focusables  []tview.Primitive
	focusIdx    int
}

func newView(targets []string, protocols []string) *view {
	root := tview.NewFlex().SetDirection(tview.FlexRow)

	header := component.NewHeader(targets, protocols)
	deviceTable := component.NewDeviceTable()
	eventTable := component.NewEventTable()

	root.
		AddItem(header.Primitive(), 10, 1, false).
		AddItem(deviceTable.Primitive(), 0, 3, true).
		AddItem(eventTable.Primitive(), 0, 1, false)

	return &view{
		root:        root,
		header:      header,
		deviceTable: deviceTable,
		eventTable:  eventTable,
		focusables:  []tview.Primitive{deviceTable.Primitive(), eventTable.Primitive()},
	}
}

// nextFocus returns the table that should receive focus next
func (v *view) nextFocus() tview.Primitive {
	v.focusIdx = (v.focusIdx + 1) % len(v.focusables)
	return v.focusables[v.focusIdx]
}

// handleEvent applies one discovery event to the tables and status line
func (v *view) handleEvent(evt event.Event) {
	v.eventTable.UpdateTable(evt)

	switch evt.Type {
	case event.ScanStarted:
		v.deviceTable.Clear()
		v.header.SetStatus("scanning", false)
	case event.DeviceDiscovered, event.DeviceUpdated:
		if device, ok := evt.Payload.(*discovery.DiscoveredDevice); ok {
			v.deviceTable.UpdateDevice(device)
		}
	case event.ScanCompleted:
		v.header.SetStatus(
			fmt.Sprintf("completed, %d devices", v.deviceTable.Count()),
			false,
		)
	case event.ScanAborted:
		v.header.SetStatus(
			fmt.Sprintf("aborted, %d devices", v.deviceTable.Count()),
			true,
		)
	}
}
