package component

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/robgonnella/plcscout/internal/discovery"
	"github.com/robgonnella/plcscout/internal/ui/style"
)

// DeviceTable lists discovered devices ordered by protocol, address and port
type DeviceTable struct {
	table   *tview.Table
	devices map[string]*discovery.DiscoveredDevice
}

func NewDeviceTable() *DeviceTable {
	columnHeaders := []string{
		"IP",
		"PORT",
		"PROTOCOL",
		"TYPE",
		"MANUFACTURER",
		"MODEL",
		"FIRMWARE",
		"CONFIDENCE",
		"SECURITY",
		"ZONE",
		"LAST SEEN",
	}

	return &DeviceTable{
		table:   createTable("devices", columnHeaders),
		devices: map[string]*discovery.DiscoveredDevice{},
	}
}

func (t *DeviceTable) Primitive() tview.Primitive {
	return t.table
}

// Count returns the number of devices shown
func (t *DeviceTable) Count() int {
	return len(t.devices)
}

// Clear removes every device row
func (t *DeviceTable) Clear() {
	for row := t.table.GetRowCount() - 1; row >= 2; row-- {
		t.table.RemoveRow(row)
	}

	t.devices = map[string]*discovery.DiscoveredDevice{}
}

// UpdateDevice adds or replaces a device and redraws the rows
func (t *DeviceTable) UpdateDevice(device *discovery.DiscoveredDevice) {
	t.devices[device.Key()] = device

	devices := make([]*discovery.DiscoveredDevice, 0, len(t.devices))

	for _, d := range t.devices {
		devices = append(devices, d)
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Protocol != devices[j].Protocol {
			return devices[i].Protocol < devices[j].Protocol
		}
		if devices[i].IP != devices[j].IP {
			return compareAddr(devices[i].IP, devices[j].IP)
		}
		return devices[i].Port < devices[j].Port
	})

	for idx, d := range devices {
		setRow(t.table, idx+2, []*tview.TableCell{
			textCell(d.IP, style.ColorWhite),
			textCell(strconv.Itoa(d.Port), style.ColorWhite),
			textCell(string(d.Protocol), style.ColorLightGreen),
			textCell(d.DeviceType, style.ColorWhite),
			textCell(d.Manufacturer, style.ColorWhite),
			textCell(orDash(d.Model), style.ColorWhite),
			textCell(orDash(d.FirmwareVersion), style.ColorWhite),
			textCell(fmt.Sprintf("%.2f", d.ConfidenceScore), style.ConfidenceColor(d.ConfidenceScore)),
			textCell(d.SecurityLevel, securityColor(d.SecurityLevel)),
			textCell(d.NetworkZone, style.ColorWhite),
			textCell(d.LastSeen.Format(time.TimeOnly), style.ColorDimGrey),
		})
	}
}

func securityColor(level string) tcell.Color {
	if level == "low" {
		return style.ColorOrange
	}
	return style.ColorWhite
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// compareAddr orders dotted quads numerically, anything else lexically
func compareAddr(a, b string) bool {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")

	if len(pa) != 4 || len(pb) != 4 {
		return a < b
	}

	for i := range pa {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])

		if errA != nil || errB != nil {
			return a < b
		}

		if na != nb {
			return na < nb
		}
	}

	return false
}
