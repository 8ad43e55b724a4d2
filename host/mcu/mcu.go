package mcu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"wheelbot/host/serial"
	"wheelbot/protocol"
)

var (
	ErrNotConnected   = errors.New("not connected to MCU")
	ErrNoDictionary   = errors.New("dictionary not loaded")
	ErrUnknownCommand = errors.New("unknown command")
)

// Bootstrap IDs, fixed before the dictionary is known.
const (
	identifyResponseID = 0
	identifyID         = 1
	identifyChunk      = 40
)

// MCU is a connection to the wheelbot firmware.
type MCU struct {
	transport *protocol.HostTransport
	port      io.ReadWriteCloser

	// Dictionary data
	dictionary     *Dictionary
	dictionaryData []byte
	commands       map[string]*Format
	responses      map[string]*Format
	responseByID   map[uint16]*Format

	// queryMu keeps one query's response wait from taking another's answer.
	queryMu sync.Mutex

	connected bool
}

// Dictionary represents the parsed MCU dictionary
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]string         `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]int `json:"enumerations,omitempty"`
}

// New talks to firmware over an already open port.
func New(port io.ReadWriteCloser) *MCU {
	return &MCU{
		port:      port,
		transport: protocol.NewHostTransport(port),
		connected: true,
	}
}

// Connect opens a serial port and wraps it. Stale input from an earlier
// session is flushed first.
func Connect(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flushing %s: %w", cfg.Device, err)
	}
	m := New(port)

	// Give the MCU time to settle if opening the port reset it.
	time.Sleep(100 * time.Millisecond)
	return m, nil
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	if !m.connected {
		return nil
	}
	m.connected = false
	return m.transport.Close()
}

// RetrieveDictionary fetches the dictionary in identify chunks and parses it.
func (m *MCU) RetrieveDictionary() error {
	if !m.connected {
		return ErrNotConnected
	}

	var dictBuffer bytes.Buffer
	offset := uint32(0)
	for i := 0; i < 1000; i++ {
		chunk, err := m.sendIdentify(offset, identifyChunk)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		if len(chunk) == 0 {
			break
		}
		dictBuffer.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < identifyChunk {
			break
		}
	}

	m.dictionaryData = dictBuffer.Bytes()
	if err := m.parseDictionary(); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	return nil
}

func (m *MCU) sendIdentify(offset uint32, count uint8) ([]byte, error) {
	m.queryMu.Lock()
	defer m.queryMu.Unlock()

	m.transport.DrainResponses()
	err := m.transport.SendCommand(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send identify command: %w", err)
	}

	resp, err := m.transport.ReceiveResponse(time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to receive identify response: %w", err)
	}

	payload := resp.Payload
	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response command ID: %w", err)
	}
	if cmdID != identifyResponseID {
		return nil, fmt.Errorf("unexpected response command ID: %d (expected 0)", cmdID)
	}
	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response offset: %w", err)
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}
	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}
	return data, nil
}

func (m *MCU) parseDictionary() error {
	dict := &Dictionary{}
	if err := json.Unmarshal(m.dictionaryData, dict); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	commands := make(map[string]*Format, len(dict.Commands))
	for sig, id := range dict.Commands {
		f, err := ParseFormat(sig)
		if err != nil {
			return err
		}
		f.ID = uint16(id)
		commands[f.Name] = f
	}
	responses := make(map[string]*Format, len(dict.Responses))
	byID := make(map[uint16]*Format, len(dict.Responses))
	for sig, id := range dict.Responses {
		f, err := ParseFormat(sig)
		if err != nil {
			return err
		}
		f.ID = uint16(id)
		responses[f.Name] = f
		byID[f.ID] = f
	}

	m.dictionary = dict
	m.commands = commands
	m.responses = responses
	m.responseByID = byID
	return nil
}

// GetDictionary returns the parsed dictionary
func (m *MCU) GetDictionary() *Dictionary {
	return m.dictionary
}

// GetDictionaryRaw returns the raw dictionary data
func (m *MCU) GetDictionaryRaw() []byte {
	return m.dictionaryData
}

// Constant returns a firmware constant from the dictionary.
func (m *MCU) Constant(name string) (string, bool) {
	if m.dictionary == nil {
		return "", false
	}
	v, ok := m.dictionary.Config[name]
	return v, ok
}

// PrintDictionary writes a summary of the dictionary to w.
func (m *MCU) PrintDictionary(w io.Writer) {
	if m.dictionary == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}

	fmt.Fprintln(w, "=== MCU Dictionary ===")
	fmt.Fprintf(w, "Version: %s\n", m.dictionary.Version)
	fmt.Fprintf(w, "Build: %s\n", m.dictionary.BuildVersions)

	fmt.Fprintln(w, "\nConfig:")
	for _, k := range sortedKeys(m.dictionary.Config) {
		fmt.Fprintf(w, "  %s = %s\n", k, m.dictionary.Config[k])
	}
	printIDs(w, "Commands", m.dictionary.Commands)
	printIDs(w, "Responses", m.dictionary.Responses)
}

func printIDs(w io.Writer, title string, ids map[string]int) {
	sigs := sortedKeys(ids)
	sort.Slice(sigs, func(i, j int) bool { return ids[sigs[i]] < ids[sigs[j]] })
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(sigs))
	for _, sig := range sigs {
		fmt.Fprintf(w, "  [%d] %s\n", ids[sig], sig)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MCU) command(name string) (*Format, error) {
	if !m.connected {
		return nil, ErrNotConnected
	}
	if m.dictionary == nil {
		return nil, ErrNoDictionary
	}
	f, ok := m.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return f, nil
}

// Send encodes a command by name and waits for its ACK.
func (m *MCU) Send(name string, args ...int64) error {
	f, err := m.command(name)
	if err != nil {
		return err
	}
	return m.send(f, args)
}

func (m *MCU) send(f *Format, args []int64) error {
	scratch := protocol.NewScratchOutput()
	if err := f.Encode(scratch, args...); err != nil {
		return err
	}
	return m.transport.SendCommand(f.ID, func(output protocol.OutputBuffer) {
		output.Output(scratch.Result())
	})
}

// Query sends a command and waits up to timeout for the named response.
// Other responses arriving meanwhile are skipped.
func (m *MCU) Query(name, response string, timeout time.Duration, args ...int64) (Params, error) {
	f, err := m.command(name)
	if err != nil {
		return Params{}, err
	}
	want, ok := m.responses[response]
	if !ok {
		return Params{}, fmt.Errorf("%w: response %s", ErrUnknownCommand, response)
	}

	m.queryMu.Lock()
	defer m.queryMu.Unlock()

	m.transport.DrainResponses()
	if err := m.send(f, args); err != nil {
		return Params{}, fmt.Errorf("%s: %w", name, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return Params{}, fmt.Errorf("%s: waiting for %s: %w", name, response, protocol.ErrNoResponse)
		}
		msg, err := m.transport.ReceiveResponse(left)
		if err != nil {
			return Params{}, fmt.Errorf("%s: waiting for %s: %w", name, response, err)
		}
		payload := msg.Payload
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil || uint16(id) != want.ID {
			continue
		}
		return want.Decode(payload)
	}
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// DecodeResponse decodes a raw response frame payload using the dictionary.
func (m *MCU) DecodeResponse(payload []byte) (Params, error) {
	if m.dictionary == nil {
		return Params{}, ErrNoDictionary
	}
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return Params{}, err
	}
	f, ok := m.responseByID[uint16(id)]
	if !ok {
		return Params{}, fmt.Errorf("%w: response id %d", ErrUnknownCommand, id)
	}
	return f.Decode(payload)
}
