package classifier

import "github.com/robgonnella/plcscout/internal/probe"

//go:generate mockgen -destination=../mock/classifier/mock_classifier.go -package=mock_classifier . Repo,Service

// UnknownDevice device type used when nothing matched
const UnknownDevice = "Unknown Device"

// UnknownManufacturer manufacturer used when nothing matched
const UnknownManufacturer = "Unknown"

// Fingerprint normalized tags summarizing everything a probe revealed plus
// a short hash of those tags
type Fingerprint struct {
	Tags []string `json:"tags" yaml:"tags"`
	Hash string   `json:"hash" yaml:"hash"`
}

// Classification heuristic identity assigned to one endpoint. All
// confidences are within [0,1].
type Classification struct {
	DeviceType             string      `json:"device_type"`
	DeviceTypeConfidence   float64     `json:"device_type_confidence"`
	Manufacturer           string      `json:"manufacturer"`
	ManufacturerConfidence float64     `json:"manufacturer_confidence"`
	Model                  string      `json:"model"`
	Firmware               string      `json:"firmware"`
	Capabilities           []string    `json:"capabilities"`
	Confidence             float64     `json:"confidence"`
	SecurityLevel          string      `json:"security_level"`
	NetworkZone            string      `json:"network_zone"`
	Fingerprint            Fingerprint `json:"fingerprint"`
}

// Repo cache of classifications keyed by "ip:port"
type Repo interface {
	Get(key string) (*Classification, error)
	Put(key string, c *Classification) error
	Delete(key string) error
	Clear() error
}

// Service classifies what a probe revealed about one endpoint
type Service interface {
	Classify(endpoint probe.Endpoint, features probe.Features) *Classification
}
