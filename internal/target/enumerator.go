package target

import (
	"fmt"
	"net"
	"strings"

	"github.com/projectdiscovery/mapcidr"
	"github.com/robgonnella/plcscout/internal/logger"
)

// DefaultMaxHostsPerRange cap applied to a single range when none is given
const DefaultMaxHostsPerRange = 254

// widest prefix expanded before narrowing to its first subnet
const maxHostBits = 8

// RangeError a network range that could not be expanded
type RangeError struct {
	Range string
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid network range %q: %s", e.Range, e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// Result hosts produced by an enumeration and the ranges that were skipped
type Result struct {
	Hosts  []string
	Errors []*RangeError
}

// Enumerator expands network ranges into a bounded list of host addresses
type Enumerator struct {
	maxPerRange int
	log         logger.Logger
}

// NewEnumerator returns a new Enumerator capping every range at maxPerRange
func NewEnumerator(maxPerRange int) *Enumerator {
	if maxPerRange <= 0 {
		maxPerRange = DefaultMaxHostsPerRange
	}

	return &Enumerator{
		maxPerRange: maxPerRange,
		log:         logger.Named("target"),
	}
}

// Enumerate expands each range in order. Bare addresses are accepted as
// single hosts. Invalid ranges are recorded and skipped, duplicates across
// ranges are dropped.
func (e *Enumerator) Enumerate(ranges []string) *Result {
	result := &Result{Hosts: []string{}}
	seen := map[string]bool{}

	for _, r := range ranges {
		r = strings.TrimSpace(r)

		hosts, err := e.expand(r)

		if err != nil {
			e.log.Warn().Str("range", r).Err(err).Msg("skipping network range")
			result.Errors = append(result.Errors, &RangeError{Range: r, Err: err})
			continue
		}

		for _, h := range hosts {
			if seen[h] {
				continue
			}

			seen[h] = true
			result.Hosts = append(result.Hosts, h)
		}
	}

	return result
}

func (e *Enumerator) expand(r string) ([]string, error) {
	if !strings.Contains(r, "/") {
		ip := net.ParseIP(r)

		if ip == nil {
			return nil, fmt.Errorf("not an ip address or cidr")
		}

		return []string{ip.String()}, nil
	}

	_, ipnet, err := net.ParseCIDR(r)

	if err != nil {
		return nil, err
	}

	ones, bits := ipnet.Mask.Size()

	if bits-ones > maxHostBits {
		narrowed := bits - maxHostBits
		ipnet.Mask = net.CIDRMask(narrowed, bits)

		e.log.Warn().
			Str("range", r).
			Str("scanning", ipnet.String()).
			Msg("network range too large, limiting to first subnet")

		ones = narrowed
	}

	ips, err := mapcidr.IPAddresses(ipnet.String())

	if err != nil {
		return nil, err
	}

	excluded := map[string]bool{}

	// point-to-point and single host prefixes have no network or broadcast
	if bits-ones >= 2 {
		excluded[ipnet.IP.String()] = true

		if ipnet.IP.To4() != nil {
			excluded[broadcast(ipnet).String()] = true
		}
	}

	hosts := make([]string, 0, len(ips))

	for _, ip := range ips {
		if excluded[ip] {
			continue
		}

		hosts = append(hosts, ip)

		if len(hosts) == e.maxPerRange {
			e.log.Debug().Str("range", r).Int("cap", e.maxPerRange).Msg("host cap reached")
			break
		}
	}

	return hosts, nil
}

func broadcast(ipnet *net.IPNet) net.IP {
	ip := make(net.IP, len(ipnet.IP))

	for i := range ipnet.IP {
		ip[i] = ipnet.IP[i] | ^ipnet.Mask[i]
	}

	return ip
}
