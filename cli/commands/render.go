package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/robgonnella/plcscout/internal/discovery"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var outputFormats = []string{outputTable, outputJSON, outputYAML}

// render writes the protocol to devices mapping of report in format
func render(w io.Writer, format string, report *discovery.ScanReport) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report.Devices)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report.Devices); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return renderTable(w, report)
	}
}

// cell one table value with the colour it is printed in, nil for plain
type cell struct {
	text  string
	paint *color.Color
}

func renderTable(w io.Writer, report *discovery.ScanReport) error {
	header := color.New(color.FgMagenta, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	stats := report.Stats

	stateColor := green

	if stats.State == discovery.PhaseAborted {
		stateColor = red
	}

	fmt.Fprintf(
		w,
		"scan %s %s: %d hosts, %d probes, %d errors, %d devices in %s\n",
		stats.ScanID,
		stateColor.Sprint(stats.State),
		stats.HostsProbed,
		stats.ProbeAttempts,
		stats.ProbeErrors,
		stats.DevicesFound,
		stats.Duration.Round(1e6),
	)

	for _, rangeErr := range stats.RangeErrors {
		fmt.Fprintln(w, red.Sprint("range error: "+rangeErr))
	}

	devices := report.Devices.Devices()

	if len(devices) == 0 {
		fmt.Fprintln(w, yellow.Sprint("no devices found"))
		return nil
	}

	fmt.Fprintln(w)

	rows := [][]cell{{}}

	for _, title := range []string{
		"PROTOCOL",
		"ADDRESS",
		"TYPE",
		"MANUFACTURER",
		"MODEL",
		"FIRMWARE",
		"CONFIDENCE",
		"SECURITY",
		"ZONE",
	} {
		rows[0] = append(rows[0], cell{text: title, paint: header})
	}

	for _, d := range devices {
		confidence := cell{text: fmt.Sprintf("%.2f", d.ConfidenceScore)}

		switch {
		case d.ConfidenceScore >= 0.7:
			confidence.paint = green
		case d.ConfidenceScore >= 0.4:
			confidence.paint = yellow
		}

		security := cell{text: d.SecurityLevel}

		if d.SecurityLevel == "low" {
			security.paint = red
		}

		rows = append(rows, []cell{
			{text: string(d.Protocol)},
			{text: d.Key()},
			{text: d.DeviceType},
			{text: d.Manufacturer},
			{text: dash(d.Model)},
			{text: dash(d.FirmwareVersion)},
			confidence,
			security,
			{text: d.NetworkZone},
		})
	}

	return writeRows(w, rows)
}

// writeRows pads every cell to its column width before colouring it so
// escape codes never count toward alignment
func writeRows(w io.Writer, rows [][]cell) error {
	widths := []int{}

	for _, row := range rows {
		for col, c := range row {
			if col >= len(widths) {
				widths = append(widths, 0)
			}
			if n := utf8.RuneCountInString(c.text); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for _, row := range rows {
		line := make([]string, len(row))

		for col, c := range row {
			text := c.text

			if col < len(row)-1 {
				text += strings.Repeat(" ", widths[col]-utf8.RuneCountInString(c.text))
			}

			if c.paint != nil {
				text = c.paint.Sprint(text)
			}

			line[col] = text
		}

		if _, err := fmt.Fprintln(w, strings.Join(line, "  ")); err != nil {
			return err
		}
	}

	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
