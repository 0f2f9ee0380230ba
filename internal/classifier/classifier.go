package classifier

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/robgonnella/plcscout/internal/exception"
	"github.com/robgonnella/plcscout/internal/logger"
	"github.com/robgonnella/plcscout/internal/probe"
	"github.com/robgonnella/plcscout/internal/util"
)

// Classifier heuristic device classifier with an optional result cache
type Classifier struct {
	repo Repo
	log  logger.Logger
}

// New returns a new Classifier. repo may be nil to disable caching.
func New(repo Repo) *Classifier {
	return &Classifier{
		repo: repo,
		log:  logger.Named("classifier"),
	}
}

// Classify assigns device type, manufacturer, model and confidence to what a
// probe revealed. It never fails: anything going wrong yields an unknown
// classification with zero confidence.
func (c *Classifier) Classify(endpoint probe.Endpoint, features probe.Features) (result *Classification) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Str("endpoint", endpoint.Key()).
				Str("panic", fmt.Sprint(r)).
				Msg("classification failed")

			result = unknown(features, 0)
		}
	}()

	fingerprint := NewFingerprint(features)

	if cached := c.cached(endpoint, fingerprint); cached != nil {
		return cached
	}

	result = classify(features, fingerprint)
	result.SecurityLevel = SecurityLevel(features)
	result.NetworkZone = NetworkZone(endpoint.IP, features.Port, result.DeviceType)

	c.store(endpoint, result)

	return result
}

func (c *Classifier) cached(endpoint probe.Endpoint, fingerprint Fingerprint) *Classification {
	if c.repo == nil {
		return nil
	}

	found, err := c.repo.Get(endpoint.Key())

	if err != nil {
		if !errors.Is(err, exception.ErrRecordNotFound) {
			c.log.Error().Err(err).Str("endpoint", endpoint.Key()).Msg("failed to read classification cache")
		}
		return nil
	}

	if found.Fingerprint.Hash != fingerprint.Hash {
		return nil
	}

	c.log.Debug().Str("endpoint", endpoint.Key()).Msg("classification cache hit")

	return found
}

func (c *Classifier) store(endpoint probe.Endpoint, result *Classification) {
	if c.repo == nil {
		return
	}

	if err := c.repo.Put(endpoint.Key(), result); err != nil {
		c.log.Error().Err(err).Str("endpoint", endpoint.Key()).Msg("failed to write classification cache")
	}
}

func classify(f probe.Features, fingerprint Fingerprint) *Classification {
	text := strings.ToLower(strings.Join(append(append([]string{}, f.Text...), f.Model, f.DeviceTypeHint, f.ManufacturerHint), " "))

	deviceType, typeConfidence := scoreDeviceType(f, text)

	if deviceType == "" {
		return unknown(f, 0.1)
	}

	manufacturer, manufacturerConfidence := identifyManufacturer(f, text)

	return &Classification{
		DeviceType:             deviceType,
		DeviceTypeConfidence:   typeConfidence,
		Manufacturer:           manufacturer,
		ManufacturerConfidence: manufacturerConfidence,
		Model:                  identifyModel(f),
		Firmware:               f.Firmware,
		Capabilities:           util.SliceUnique(f.Capabilities),
		Confidence:             clamp(0.7*typeConfidence + 0.3*manufacturerConfidence),
		Fingerprint:            fingerprint,
	}
}

// scoreDeviceType sums hint, keyword, protocol, port and capability weights
// per category and returns the best one
func scoreDeviceType(f probe.Features, text string) (string, float64) {
	scores := map[string]float64{}

	if f.DeviceTypeHint != "" && f.DeviceTypeConfidence > 0 {
		if normalized, ok := normalizeDeviceType(f.DeviceTypeHint); ok {
			scores[normalized] += f.DeviceTypeConfidence
		}
	}

	for _, p := range deviceTypePatterns {
		if hits := countMatches(text, p.keywords); hits > 0 {
			scores[p.label] += keywordWeight * float64(hits)
		}
	}

	for _, pr := range protocolPriors[f.Protocol] {
		scores[pr.deviceType] += pr.weight

		if isWellKnownPort(f.Protocol, f.Port) {
			scores[pr.deviceType] += wellKnownPortWeight
		}
	}

	for _, capability := range f.Capabilities {
		if pr, ok := capabilityPriors[capability]; ok {
			scores[pr.deviceType] += pr.weight
		}
	}

	best := ""
	bestScore := 0.0

	// sorted so ties resolve the same way every time
	labels := make([]string, 0, len(scores))

	for label := range scores {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	for _, label := range labels {
		if scores[label] > bestScore {
			best = label
			bestScore = scores[label]
		}
	}

	return best, clamp(bestScore)
}

func normalizeDeviceType(hint string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(hint))

	if alias, ok := deviceTypeAliases[lower]; ok {
		return alias, true
	}

	for _, p := range deviceTypePatterns {
		if strings.EqualFold(p.label, hint) {
			return p.label, true
		}
	}

	return "", false
}

// identifyManufacturer trusts an upstream hint unless vendor patterns are
// more confident
func identifyManufacturer(f probe.Features, text string) (string, float64) {
	name := UnknownManufacturer
	confidence := 0.0

	if f.ManufacturerHint != "" && f.ManufacturerConfidence > 0 {
		name = f.ManufacturerHint
		confidence = clamp(f.ManufacturerConfidence)
	}

	for _, p := range vendorPatterns {
		hits := countMatches(text, p.keywords)

		if hits == 0 {
			continue
		}

		score := clampTo(vendorFirstHit+vendorExtraHit*float64(hits-1), maxPatternScore)

		if score > confidence {
			name = p.label
			confidence = score
		}
	}

	return name, confidence
}

func identifyModel(f probe.Features) string {
	if f.Model != "" {
		return f.Model
	}

	for _, text := range f.Text {
		for _, re := range modelPatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}

	return ""
}

func unknown(f probe.Features, typeConfidence float64) *Classification {
	return &Classification{
		DeviceType:           UnknownDevice,
		DeviceTypeConfidence: typeConfidence,
		Manufacturer:         UnknownManufacturer,
		Capabilities:         util.SliceUnique(f.Capabilities),
		Confidence:           clamp(0.7 * typeConfidence),
		SecurityLevel:        SecurityLevelUnknown,
		NetworkZone:          ZoneUnknown,
	}
}

func isWellKnownPort(p probe.Protocol, port int) bool {
	for _, wk := range wellKnownPorts[p] {
		if wk == port {
			return true
		}
	}
	return false
}

// countMatches counts keywords found in text starting on a word boundary
func countMatches(text string, keywords []string) int {
	hits := 0

	for _, kw := range keywords {
		if containsWord(text, kw) {
			hits++
		}
	}

	return hits
}

func containsWord(text, kw string) bool {
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], kw)

		if idx < 0 {
			return false
		}

		start := offset + idx

		if start == 0 || !isAlnum(rune(text[start-1])) {
			return true
		}

		offset = start + 1
	}

	return false
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func clamp(v float64) float64 {
	return clampTo(v, 1)
}

func clampTo(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
