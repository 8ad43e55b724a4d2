package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures one driver event for post-mortem analysis
type TimingEvent struct {
	EventType uint8
	ID        uint8  // side or pin
	Clock     uint32 // GetTime at the event
	Value1    uint32
	Value2    uint32
}

// Event type codes
const (
	EvtMotor       = 1 // wheel written: Value1 duty, Value2 direction
	EvtStop        = 2 // stop requested
	EvtDelay       = 3 // blocking hold: Value1 milliseconds
	EvtPing        = 4 // echo received: Value1 width in µs
	EvtEchoTimeout = 5 // no echo within range
	EvtShutdown    = 6 // emergency stop
)

const TimingRingSize = 32

var (
	// debugPrintln is the platform debug sink; a no-op until set.
	debugPrintln DebugWriter = func(string) {}

	debugEnabled bool

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  = true

	debugChan chan string
)

// SetDebugWriter redirects debug output (UART, stderr, ...).
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// InitAsyncDebug starts a goroutine that drains DebugAsync messages.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go func() {
		for msg := range debugChan {
			if debugPrintln != nil {
				debugPrintln(msg)
			}
		}
	}()
}

// DebugPrintln writes msg synchronously when debug output is enabled.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues msg without blocking; it is dropped if the queue is full.
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordTiming appends an event to the ring, overwriting the oldest.
func RecordTiming(eventType, id uint8, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		ID:        id,
		Clock:     GetTime(),
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the recorded events, oldest first.
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(timingRingHead+i)%TimingRingSize]
		if evt.EventType != 0 {
			events = append(events, evt)
		}
	}
	return events
}

func eventName(t uint8) string {
	switch t {
	case EvtMotor:
		return "MOTOR"
	case EvtStop:
		return "STOP"
	case EvtDelay:
		return "DELAY"
	case EvtPing:
		return "PING"
	case EvtEchoTimeout:
		return "ECHO_TIMEOUT"
	case EvtShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// DumpTimingRing writes the ring through the debug writer regardless of
// SetDebugEnabled.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" id=" + itoa(int(evt.ID)) +
			" clock=" + itoa(int(evt.Clock)) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing empties the ring.
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
