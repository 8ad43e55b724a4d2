package core

import (
	"errors"
	"sync/atomic"

	"wheelbot/protocol"
)

var ErrShutdown = errors.New("firmware is shut down")

// FirmwareState holds the global firmware state
type FirmwareState struct {
	isShutdown uint32 // atomic bool
}

var globalState = &FirmwareState{}

// Global transport for sending responses (set by main)
var globalTransport *protocol.Transport

// SetGlobalTransport sets the transport SendResponse writes to.
func SetGlobalTransport(transport *protocol.Transport) {
	globalTransport = transport
}

// InitCoreCommands registers the protocol commands.
// Registration order matters: hosts bootstrap with
//
//	identify_response = ID 0
//	identify = ID 1
func InitCoreCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_uptime", "", handleGetUptime)
	RegisterCommand("get_config", "", handleGetConfig)
	RegisterCommand("emergency_stop", "", handleEmergencyStop)
	RegisterCommand("clear_shutdown", "", handleClearShutdown)
	RegisterCommand("dump_trace", "", handleDumpTrace)

	RegisterResponse("uptime", "high=%u clock=%u")
	RegisterResponse("config", "is_shutdown=%c led_count=%c")
}

// InitFirmware wires r into the command handlers, registers every command
// and builds the dictionary. build names the platform in build_versions.
func InitFirmware(r *Robot, build string) {
	TimerInit()
	SetRobot(r)
	InitCoreCommands()
	InitRobotCommands()

	GetGlobalDictionary().SetBuildVersions(build)
	board := r.Board()
	RegisterConstant("BOARD", board.Name)
	RegisterConstant("LED_COUNT", board.LEDCount)
	RegisterConstant("SPEED_MAX", SpeedMax)
	RegisterConstant("ECHO_TIMEOUT_US", EchoTimeoutMicros)
	RegisterEnumeration("side", []string{"left", "right", "all"})
	RegisterEnumeration("steer", []string{"left", "right"})
	RegisterEnumeration("unit", []string{"raw", "cm", "in"})
	RegisterEnumeration("motion_status", []string{"ok", "shutdown", "failed", "invalid"})

	GetGlobalDictionary().BuildDictionary()
}

func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := GetGlobalDictionary().GetChunk(offset, uint8(count))
	SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

func handleGetUptime(data *[]byte) error {
	uptime := Uptime()
	SendResponse("uptime", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(uptime>>32))
		protocol.EncodeVLQUint(output, uint32(uptime))
	})
	return nil
}

func handleGetConfig(data *[]byte) error {
	ledCount := 0
	if robot != nil {
		ledCount = robot.Board().LEDCount
	}
	SendResponse("config", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, boolToUint(IsShutdown()))
		protocol.EncodeVLQUint(output, uint32(ledCount))
	})
	return nil
}

func handleEmergencyStop(data *[]byte) error {
	TryShutdown("emergency_stop")
	return nil
}

func handleClearShutdown(data *[]byte) error {
	ResetFirmwareState()
	return nil
}

func handleDumpTrace(data *[]byte) error {
	DumpTimingRing()
	return nil
}

// TryShutdown stops the wheels, silences the buzzer and refuses further
// motion until clear_shutdown.
func TryShutdown(reason string) {
	atomic.StoreUint32(&globalState.isShutdown, 1)
	RecordTiming(EvtShutdown, 0, 0, 0)
	if robot != nil {
		_ = robot.Stop()
		_ = robot.SetBuzzer(false)
	}
	DebugPrintln("[shutdown] " + reason)
	DumpTimingRing()
}

// IsShutdown returns true if the firmware is in shutdown state
func IsShutdown() bool {
	return atomic.LoadUint32(&globalState.isShutdown) != 0
}

// ResetFirmwareState clears shutdown, as after a host reconnect.
func ResetFirmwareState() {
	atomic.StoreUint32(&globalState.isShutdown, 0)
}

// SendResponse encodes a registered response on the global transport.
func SendResponse(responseName string, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	cmd, ok := globalRegistry.GetCommandByName(responseName)
	if !ok {
		panic("response not registered: " + responseName)
	}
	globalTransport.SendCommand(cmd.ID, args)
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
