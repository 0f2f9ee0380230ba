package component

import (
	"fmt"
	"strconv"

	"github.com/rivo/tview"
	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/robgonnella/plcscout/internal/event"
	"github.com/robgonnella/plcscout/internal/ui/style"
)

type EventTable struct {
	table     *tview.Table
	count     uint
	maxEvents uint
}

func NewEventTable() *EventTable {
	columnHeaders := []string{
		"NO",
		"EVENT TYPE",
		"DETAIL",
	}

	return &EventTable{
		table:     createTable("events", columnHeaders),
		count:     0,
		maxEvents: 50,
	}
}

func (t *EventTable) Primitive() tview.Primitive {
	return t.table
}

func (t *EventTable) UpdateTable(evt event.Event) {
	t.count++

	color := style.ColorWhite

	switch evt.Type {
	case event.ErrorEventType, event.FatalErrorEventType, event.ScanAborted:
		color = style.ColorRed
	case event.DeviceDiscovered:
		color = style.ColorMediumGreen
	}

	setRow(t.table, t.table.GetRowCount(), []*tview.TableCell{
		textCell(strconv.Itoa(int(t.count)), style.ColorDimGrey),
		textCell(string(evt.Type), color),
		textCell(Describe(evt), style.ColorWhite),
	})

	if t.count > t.maxEvents {
		t.table.RemoveRow(2)
	}

	t.table.ScrollToEnd()
}

// Describe renders an event payload as a single line
func Describe(evt event.Event) string {
	switch payload := evt.Payload.(type) {
	case *discovery.DiscoveredDevice:
		return fmt.Sprintf(
			"%s %s %s (%s, %.2f)",
			payload.Key(),
			payload.Protocol,
			payload.DeviceType,
			payload.Manufacturer,
			payload.ConfidenceScore,
		)
	case discovery.ScanStats:
		if payload.FinishedAt.IsZero() {
			return fmt.Sprintf(
				"scan %s: %d hosts, protocols %v",
				payload.ScanID,
				payload.HostsProbed,
				payload.Protocols,
			)
		}

		return fmt.Sprintf(
			"scan %s %s: %d devices, %d attempts, %d errors in %s",
			payload.ScanID,
			payload.State,
			payload.DevicesFound,
			payload.ProbeAttempts,
			payload.ProbeErrors,
			payload.Duration.Round(1e6),
		)
	case error:
		return payload.Error()
	case nil:
		return ""
	default:
		return fmt.Sprint(payload)
	}
}
