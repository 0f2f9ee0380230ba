package classifier

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/robgonnella/plcscout/internal/probe"
)

// NewFingerprint summarizes features as sorted, de-duplicated tags
func NewFingerprint(f probe.Features) Fingerprint {
	tags := map[string]bool{}

	add := func(prefix, value string) {
		value = strings.ToLower(strings.Join(strings.Fields(value), " "))

		if value != "" {
			tags[prefix+":"+value] = true
		}
	}

	add("proto", string(f.Protocol))

	if f.Port > 0 {
		add("port", strconv.Itoa(f.Port))
	}

	add("vendor", f.ManufacturerHint)
	add("type", f.DeviceTypeHint)
	add("model", f.Model)
	add("fw", f.Firmware)

	for _, c := range f.Capabilities {
		add("cap", c)
	}

	for _, t := range f.Text {
		add("text", t)
	}

	if f.AuthAdvertised {
		add("auth", "advertised")
	}

	sorted := make([]string, 0, len(tags))

	for t := range tags {
		sorted = append(sorted, t)
	}

	sort.Strings(sorted)

	sum := sha1.Sum([]byte(strings.Join(sorted, "|")))

	return Fingerprint{
		Tags: sorted,
		Hash: hex.EncodeToString(sum[:])[:12],
	}
}
