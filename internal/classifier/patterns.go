package classifier

import (
	"regexp"

	"github.com/robgonnella/plcscout/internal/probe"
)

// Device type categories
const (
	TypePLC           = "PLC"
	TypeHMI           = "HMI"
	TypeIOModule      = "I/O Module"
	TypeDrive         = "Drive"
	TypeGateway       = "Gateway"
	TypeSensor        = "Sensor"
	TypeNetworkSwitch = "Network Switch"
	TypeBroker        = "Message Broker"
)

const (
	keywordWeight   = 0.25
	vendorFirstHit  = 0.6
	vendorExtraHit  = 0.15
	maxPatternScore = 0.95
)

type keywordPattern struct {
	label    string
	keywords []string
}

var deviceTypePatterns = []keywordPattern{
	{TypePLC, []string{
		"plc", "logix", "controller", "cpu", "s7-", "simatic s7", "modicon",
		"m340", "m580", "bmx p", "cj2", "nx1p", "nj501", "twincat", "melsec",
		"pfc200", "ac500",
	}},
	{TypeHMI, []string{
		"hmi", "panelview", "operator", "touch panel", "wincc", "scada",
		"visualization", "magelis",
	}},
	{TypeIOModule, []string{
		"i/o", "io module", "et 200", "750-", "coupler", "remote io",
		"point io", "flex io", "ek1100",
	}},
	{TypeDrive, []string{
		"drive", "powerflex", "vfd", "inverter", "sinamics", "altivar",
		"servo",
	}},
	{TypeGateway, []string{
		"gateway", "bridge", "translator", "anybus", "prosoft", "protocol converter",
	}},
	{TypeSensor, []string{
		"sensor", "encoder", "photoelectric", "proximity", "transmitter",
		"flow meter", "gauge",
	}},
	{TypeNetworkSwitch, []string{
		"managed switch", "stratix", "scalance", "ethernet switch",
	}},
	{TypeBroker, []string{
		"broker", "mosquitto", "hivemq", "emqx", "vernemq", "iot core", "iot hub",
	}},
}

var vendorPatterns = []keywordPattern{
	{"Rockwell Automation", []string{"allen-bradley", "rockwell", "logix", "powerflex", "panelview", "1756-", "1769-", "stratix"}},
	{"Siemens", []string{"siemens", "simatic", "s7-", "sinamics", "scalance", "wincc", "et 200"}},
	{"Schneider Electric", []string{"schneider", "modicon", "telemecanique", "altivar", "magelis", "bmx p", "m340", "m580"}},
	{"OMRON", []string{"omron", "sysmac", "cj2", "nx1p", "nj501"}},
	{"Beckhoff", []string{"beckhoff", "twincat", "cx9020", "ek1100"}},
	{"WAGO", []string{"wago", "750-", "pfc200"}},
	{"Mitsubishi Electric", []string{"mitsubishi", "melsec"}},
	{"Phoenix Contact", []string{"phoenix contact", "axc f"}},
	{"ABB", []string{"abb", "ac500"}},
	{"HMS Networks", []string{"anybus", "hms industrial"}},
	{"ProSoft Technology", []string{"prosoft"}},
	{"Eclipse Foundation", []string{"mosquitto"}},
	{"HiveMQ GmbH", []string{"hivemq"}},
	{"EMQ Technologies", []string{"emqx"}},
}

// normalizes device type hints coming from protocol tables
var deviceTypeAliases = map[string]string{
	"programmable logic controller":  TypePLC,
	"human-machine interface":        TypeHMI,
	"communications adapter":         TypeIOModule,
	"general purpose discrete i/o":   TypeIOModule,
	"safety discrete i/o device":     TypeIOModule,
	"safety analog i/o device":       TypeIOModule,
	"ac drive":                       TypeDrive,
	"dc drive":                       TypeDrive,
	"cip motion drive":               TypeDrive,
	"soft start":                     TypeDrive,
	"motor starter":                  TypeDrive,
	"position controller":            TypeDrive,
	"limit switch":                   TypeSensor,
	"inductive proximity switch":     TypeSensor,
	"photoelectric sensor":           TypeSensor,
	"encoder":                        TypeSensor,
	"vacuum pressure gauge":          TypeSensor,
	"managed switch":                 TypeNetworkSwitch,
	"cip modbus translator":          TypeGateway,
	"cip modbus device":              TypeGateway,
	"message broker":                 TypeBroker,
	"mass flow controller":           TypeSensor,
	"mass flow controller, enhanced": TypeSensor,
}

type prior struct {
	deviceType string
	weight     float64
}

// protocol priors, a well known port adds the port weight on top
var protocolPriors = map[probe.Protocol][]prior{
	probe.ProtocolModbus:     {{TypePLC, 0.25}, {TypeIOModule, 0.15}},
	probe.ProtocolEthernetIP: {{TypePLC, 0.2}, {TypeIOModule, 0.1}},
	probe.ProtocolMQTT:       {{TypeBroker, 0.4}},
	probe.ProtocolOPCUA:      {{TypeHMI, 0.25}, {TypeGateway, 0.2}},
}

var wellKnownPorts = map[probe.Protocol][]int{
	probe.ProtocolModbus:     {502},
	probe.ProtocolEthernetIP: {44818, 2222},
	probe.ProtocolMQTT:       {1883, 8883},
	probe.ProtocolOPCUA:      {4840},
}

const wellKnownPortWeight = 0.05

var capabilityPriors = map[string]prior{
	"logic_control":        {TypePLC, 0.3},
	"io_scanner":           {TypePLC, 0.1},
	"operator_interface":   {TypeHMI, 0.3},
	"visualization":        {TypeHMI, 0.1},
	"motor_control":        {TypeDrive, 0.3},
	"motion_control":       {TypeDrive, 0.1},
	"io_adapter":           {TypeIOModule, 0.3},
	"discrete_io":          {TypeIOModule, 0.2},
	"analog_io":            {TypeIOModule, 0.2},
	"discrete_sensing":     {TypeSensor, 0.3},
	"position_feedback":    {TypeSensor, 0.2},
	"protocol_translation": {TypeGateway, 0.3},
	"network_bridge":       {TypeGateway, 0.1},
	"network_switching":    {TypeNetworkSwitch, 0.4},
	"coils":                {TypePLC, 0.05},
	"holding_registers":    {TypePLC, 0.05},
}

var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(17[56][69]-L\d{2}[A-Z0-9/]*)`),
	regexp.MustCompile(`(?i)\b(S7-\d{3,4}[A-Z]?)\b`),
	regexp.MustCompile(`(?i)\b(CPU ?\d{3,4}[A-Z0-9-]*)\b`),
	regexp.MustCompile(`(?i)\b(BMX ?P\d{2} ?\d{4})\b`),
	regexp.MustCompile(`(?i)\b(M[235]80|M340|M221)\b`),
	regexp.MustCompile(`(?i)\b(CJ2[MH]-CPU\d{2}|NX1P2-\w+|NJ\d{3}-\w+)`),
	regexp.MustCompile(`(?i)\b(CX\d{4}|EK\d{4})\b`),
	regexp.MustCompile(`(?i)\b(750-\d{3,4})\b`),
	regexp.MustCompile(`(?i)\b(PanelView(?: Plus)?(?: \d+)?)`),
	regexp.MustCompile(`(?i)\b(PowerFlex ?\d{2,3}\w*)\b`),
}
