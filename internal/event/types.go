package event

type EventType string

const (
	// AllEvents registers a listener for every event type
	AllEvents           EventType = "*"
	ScanStarted         EventType = "scan-started"
	DeviceDiscovered    EventType = "device-discovered"
	DeviceUpdated       EventType = "device-updated"
	ScanCompleted       EventType = "scan-completed"
	ScanAborted         EventType = "scan-aborted"
	ErrorEventType      EventType = "error"
	FatalErrorEventType EventType = "fatal-error"
)

// Event data structure representing any event we may want to react to
type Event struct {
	Type    EventType
	Payload any
}
