package probe

import "fmt"

// CIP vendor ids as registered with ODVA. Only vendors commonly found on
// plant floors are listed; everything else degrades to "Unknown (ID: N)".
var cipVendors = map[uint16]string{
	1:    "Rockwell Automation/Allen-Bradley",
	2:    "Namco Controls Corp.",
	3:    "Honeywell Inc.",
	4:    "Parker Hannifin Corp.",
	5:    "Rockwell Automation/Reliance Electric",
	8:    "Molex Incorporated",
	26:   "Festo Corporation",
	40:   "WAGO Corporation",
	44:   "Banner Engineering Corp.",
	47:   "OMRON Corporation",
	48:   "Hans Turck GmbH",
	49:   "Grayhill Inc.",
	50:   "Real Time Automation (RTA)",
	58:   "Phoenix Contact",
	90:   "HMS Industrial Networks AB",
	95:   "ProSoft Technology",
	108:  "Beckhoff Automation GmbH",
	145:  "Eaton Electrical",
	161:  "Mitsubishi Electric Automation, Inc.",
	243:  "Schneider Automation, Inc.",
	252:  "Emerson Process Management",
	283:  "Hilscher GmbH",
	356:  "Fanuc Robotics America",
	674:  "Yaskawa Electric America",
	678:  "Cognex Corporation",
	808:  "SICK AG",
	1105: "Siemens Energy & Automation",
	1251: "Siemens Industry, Inc.",
}

// CIP device profile codes
var cipDeviceTypes = map[uint16]string{
	0x00: "Generic Device (deprecated)",
	0x02: "AC Drive",
	0x03: "Motor Overload",
	0x04: "Limit Switch",
	0x05: "Inductive Proximity Switch",
	0x06: "Photoelectric Sensor",
	0x07: "General Purpose Discrete I/O",
	0x09: "Resolver",
	0x0C: "Communications Adapter",
	0x0E: "Programmable Logic Controller",
	0x10: "Position Controller",
	0x13: "DC Drive",
	0x15: "Contactor",
	0x16: "Motor Starter",
	0x17: "Soft Start",
	0x18: "Human-Machine Interface",
	0x1A: "Mass Flow Controller",
	0x1B: "Pneumatic Valve",
	0x1C: "Vacuum Pressure Gauge",
	0x1D: "Process Control Value",
	0x1E: "Residual Gas Analyzer",
	0x1F: "DC Power Generator",
	0x20: "RF Power Generator",
	0x21: "Turbomolecular Vacuum Pump",
	0x22: "Encoder",
	0x23: "Safety Discrete I/O Device",
	0x24: "Fluid Flow Controller",
	0x25: "CIP Motion Drive",
	0x26: "CompoNet Repeater",
	0x27: "Mass Flow Controller, Enhanced",
	0x28: "CIP Modbus Device",
	0x29: "CIP Modbus Translator",
	0x2A: "Safety Analog I/O Device",
	0x2B: "Generic Device (keyable)",
	0x2C: "Managed Switch",
	0x32: "ControlNet Physical Layer Component",
}

var cipDeviceTypeCapabilities = map[uint16][]string{
	0x02: {"motor_control", "variable_speed"},
	0x03: {"motor_protection"},
	0x04: {"discrete_sensing"},
	0x05: {"discrete_sensing"},
	0x06: {"discrete_sensing"},
	0x07: {"discrete_io"},
	0x0C: {"network_bridge", "io_adapter"},
	0x0E: {"logic_control", "io_scanner", "messaging"},
	0x10: {"motion_control"},
	0x13: {"motor_control", "variable_speed"},
	0x15: {"motor_control"},
	0x16: {"motor_control"},
	0x17: {"motor_control"},
	0x18: {"operator_interface", "visualization"},
	0x22: {"position_feedback"},
	0x23: {"discrete_io", "safety"},
	0x25: {"motor_control", "motion_control"},
	0x28: {"protocol_translation"},
	0x29: {"protocol_translation"},
	0x2A: {"analog_io", "safety"},
	0x2C: {"network_switching"},
}

var cipVendorCapabilities = map[uint16][]string{
	1:   {"rockwell_logix_messaging"},
	5:   {"rockwell_logix_messaging"},
	47:  {"omron_sysmac"},
	108: {"twincat_runtime"},
	40:  {"codesys_runtime"},
}

// LookupVendor returns the vendor name for a CIP vendor id. Unknown ids
// produce an "Unknown (ID: N)" label and false.
func LookupVendor(id uint16) (string, bool) {
	if name, ok := cipVendors[id]; ok {
		return name, true
	}

	return fmt.Sprintf("Unknown (ID: %d)", id), false
}

// LookupDeviceType returns the CIP device profile name for a device type id.
// Unknown ids produce an "Unknown (ID: N)" label and false.
func LookupDeviceType(id uint16) (string, bool) {
	if name, ok := cipDeviceTypes[id]; ok {
		return name, true
	}

	return fmt.Sprintf("Unknown (ID: %d)", id), false
}

func enipCapabilities(vendorID, deviceTypeID uint16) []string {
	caps := []string{"cip", "list_identity"}
	caps = append(caps, cipDeviceTypeCapabilities[deviceTypeID]...)
	caps = append(caps, cipVendorCapabilities[vendorID]...)
	return caps
}
