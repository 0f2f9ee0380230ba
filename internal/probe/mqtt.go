package probe

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/robgonnella/plcscout/internal/logger"
)

// UnknownBroker label used when a broker reveals nothing identifying
const UnknownBroker = "Unknown MQTT Broker"

// versions tried in order until one is accepted
var mqttVersions = []MQTTVersion{MQTT5, MQTT311, MQTT31}

type brokerSignature struct {
	pattern      string
	manufacturer string
	model        string
}

// order matters: the generic cloud markers come last
var brokerSignatures = []brokerSignature{
	{"mosquitto", "Eclipse Foundation", "Eclipse Mosquitto"},
	{"hivemq", "HiveMQ GmbH", "HiveMQ"},
	{"emqx", "EMQ Technologies", "EMQX"},
	{"vernemq", "Octavo Labs", "VerneMQ"},
	{"rabbitmq", "VMware", "RabbitMQ MQTT Plugin"},
	{"activemq", "Apache Software Foundation", "ActiveMQ"},
	{"amazonaws", "Amazon Web Services", "AWS IoT Core"},
	{"aws", "Amazon Web Services", "AWS IoT Core"},
	{"azure", "Microsoft", "Azure IoT Hub"},
}

// ConnackRefused the broker answered CONNECT with a non-zero return code
type ConnackRefused struct {
	Version MQTTVersion
	Code    byte
}

func (e *ConnackRefused) Error() string {
	return fmt.Sprintf("mqtt %s connect refused with code 0x%02x", e.Version, e.Code)
}

// MQTTResult what a broker revealed during the CONNECT / CONNACK exchange
type MQTTResult struct {
	Target         Endpoint
	Version        MQTTVersion
	ReturnCode     byte
	SessionPresent bool
	ClientID       string
	Properties     MQTTProperties
	Manufacturer   string
	Model          string
	Identified     bool
	Capabilities   []string
}

// Protocol implements Identification
func (r *MQTTResult) Protocol() Protocol {
	return ProtocolMQTT
}

// Endpoint implements Identification
func (r *MQTTResult) Endpoint() Endpoint {
	return r.Target
}

// Features implements Identification
func (r *MQTTResult) Features() Features {
	f := Features{
		Protocol:               ProtocolMQTT,
		Port:                   r.Target.Port,
		ManufacturerHint:       r.Manufacturer,
		ManufacturerConfidence: 0.2,
		DeviceTypeHint:         "Message Broker",
		DeviceTypeConfidence:   0.9,
		Model:                  r.Model,
		Firmware:               "MQTT " + r.Version.String(),
		Capabilities:           append([]string{}, r.Capabilities...),
		AuthAdvertised:         r.Properties.AuthenticationMethod != "",
	}

	if r.Identified {
		f.ManufacturerConfidence = 0.85
	}

	p := r.Properties

	for _, s := range []string{p.ServerReference, p.AuthenticationMethod, p.ReasonString, p.ResponseInformation} {
		if s != "" {
			f.Text = append(f.Text, s)
		}
	}

	for k, v := range p.UserProperties {
		f.Text = append(f.Text, k+"="+v)
	}

	return f
}

// MQTT probe performing a CONNECT handshake against a broker
type MQTT struct {
	opts     Options
	clientID string
	log      logger.Logger
}

// NewMQTT returns a new MQTT probe with a client id unique to this host
func NewMQTT(opts Options) *MQTT {
	return &MQTT{
		opts:     opts.withDefaults(),
		clientID: newClientID(),
		log:      logger.Named("mqtt"),
	}
}

// newClientID stays within the 23 character limit of MQTT 3.1
func newClientID() string {
	host, _ := os.Hostname()
	sum := sha1.Sum([]byte(host))
	return fmt.Sprintf("plcscout-%x-%s", sum[:3], uuid.NewString()[:4])
}

// ClientID returns the client id sent in CONNECT
func (m *MQTT) ClientID() string {
	return m.clientID
}

// Protocol implements Probe
func (m *MQTT) Protocol() Protocol {
	return ProtocolMQTT
}

// Probe implements Probe. Versions 5, 3.1.1 and 3.1 are tried in order on a
// fresh connection each until one is accepted with return code 0.
func (m *MQTT) Probe(ctx context.Context, target TargetHost) (Identification, error) {
	var lastErr error = ErrNotDetected

	for _, port := range target.Ports {
		for _, version := range mqttVersions {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			res, connected, err := m.attempt(ctx, target.IP, port, version)

			if err == nil {
				return res, nil
			}

			m.log.Debug().
				Str("ip", target.IP).
				Int("port", port).
				Str("version", version.String()).
				Err(err).
				Msg("mqtt connect attempt failed")

			lastErr = err

			if !connected {
				// nothing listening, other versions won't fare better
				break
			}
		}
	}

	return nil, lastErr
}

func (m *MQTT) attempt(ctx context.Context, ip string, port int, version MQTTVersion) (*MQTTResult, bool, error) {
	conn, err := m.opts.dial(ctx, ip, port)

	if err != nil {
		return nil, false, err
	}

	defer conn.Close()

	packet, err := buildConnect(version, m.clientID)

	if err != nil {
		return nil, true, err
	}

	if _, err := conn.Write(packet); err != nil {
		return nil, true, err
	}

	ack, err := readConnack(conn, version)

	if err != nil {
		return nil, true, err
	}

	if ack.returnCode != 0 {
		return nil, true, &ConnackRefused{Version: version, Code: ack.returnCode}
	}

	// be polite, failure here doesn't change what we learned
	conn.Write(buildDisconnect())

	res := &MQTTResult{
		Target:         Endpoint{IP: ip, Port: port},
		Version:        version,
		ReturnCode:     ack.returnCode,
		SessionPresent: ack.sessionPresent,
		ClientID:       m.clientID,
		Properties:     ack.properties,
	}

	if ack.properties.AssignedClientID != "" {
		res.ClientID = ack.properties.AssignedClientID
	}

	res.Manufacturer, res.Model, res.Identified = identifyBroker(version, ack.properties)
	res.Capabilities = mqttCapabilities(version, ack)

	return res, true, nil
}

// identifyBroker best effort text match on the strings a broker volunteers
func identifyBroker(version MQTTVersion, props MQTTProperties) (string, string, bool) {
	haystack := strings.ToLower(props.ServerReference + " " + props.AuthenticationMethod)

	for _, sig := range brokerSignatures {
		if strings.Contains(haystack, sig.pattern) {
			return sig.manufacturer, sig.model, true
		}
	}

	return UnknownBroker, guessBrokerModel(version, props), false
}

func guessBrokerModel(version MQTTVersion, props MQTTProperties) string {
	if version != MQTT5 {
		return fmt.Sprintf("MQTT %s Broker", version)
	}

	switch n := props.AdvancedFeatureCount(); {
	case n >= 5:
		return "Enterprise MQTT v5 Broker"
	case n >= 2:
		return "Standard MQTT v5 Broker"
	default:
		return "Basic MQTT v5 Broker"
	}
}

func mqttCapabilities(version MQTTVersion, ack *connack) []string {
	caps := []string{"mqtt_" + strings.ReplaceAll(version.String(), ".", "_"), "anonymous_access"}

	if ack.sessionPresent {
		caps = append(caps, "persistent_sessions")
	}

	p := ack.properties

	flags := []struct {
		value *bool
		name  string
	}{
		{p.WildcardSubAvailable, "wildcard_subscriptions"},
		{p.SharedSubAvailable, "shared_subscriptions"},
		{p.SubIdentifierAvailable, "subscription_identifiers"},
		{p.RetainAvailable, "retained_messages"},
	}

	for _, f := range flags {
		if f.value != nil && *f.value {
			caps = append(caps, f.name)
		}
	}

	if p.TopicAliasMaximum != nil && *p.TopicAliasMaximum > 0 {
		caps = append(caps, "topic_aliases")
	}

	if p.AuthenticationMethod != "" {
		caps = append(caps, "enhanced_authentication")
	}

	return caps
}
