package discovery

import (
	"context"
	"strconv"

	"github.com/Ullaakut/nmap/v3"
	"github.com/robgonnella/plcscout/internal/logger"
)

// NmapFilter is an implementation of the HostFilter interface using an nmap
// ping sweep
type NmapFilter struct {
	log logger.Logger
}

// NewNmapFilter returns a new instance of NmapFilter
func NewNmapFilter() *NmapFilter {
	return &NmapFilter{
		log: logger.Named("nmap"),
	}
}

// Filter ping sweeps hosts and returns the ones reported up, in their
// original order
func (f *NmapFilter) Filter(ctx context.Context, hosts []string) ([]string, error) {
	if len(hosts) == 0 {
		return []string{}, nil
	}

	f.log.Info().Int("hosts", len(hosts)).Msg("Ping sweeping targets...")

	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(hosts...),
		nmap.WithPingScan(),
		nmap.WithTimingTemplate(nmap.TimingAggressive),
	)

	if err != nil {
		return nil, err
	}

	result, warnings, err := scanner.Run()

	if warnings != nil && len(*warnings) > 0 {
		fields := map[string]interface{}{}

		for i, warning := range *warnings {
			fields[strconv.Itoa(i)] = warning
		}

		f.log.Warn().
			Fields(fields).
			Msg("encountered ping sweep warnings")
	}

	if err != nil {
		f.log.Error().Err(err).Msg("encountered ping sweep error")
		return nil, err
	}

	up := map[string]bool{}

	for _, host := range result.Hosts {
		if host.Status.String() != "up" || len(host.Addresses) == 0 {
			continue
		}

		up[host.Addresses[0].String()] = true
	}

	return filterHosts(hosts, up), nil
}

func filterHosts(hosts []string, keep map[string]bool) []string {
	filtered := []string{}

	for _, h := range hosts {
		if keep[h] {
			filtered = append(filtered, h)
		}
	}

	return filtered
}
