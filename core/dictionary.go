package core

import (
	"sort"
	"sync"

	"wheelbot/protocol"
)

// Constant is a firmware value published to the host.
type Constant struct {
	Name  string
	Value interface{}
}

// Enumeration maps value names to their wire index.
type Enumeration struct {
	Name   string
	Values []string
}

// Dictionary describes the firmware to the host: version, constants, and
// every command and response with its ID and argument format.
type Dictionary struct {
	mu            sync.RWMutex
	constants     map[string]*Constant
	enumerations  map[string]*Enumeration
	commandReg    *CommandRegistry
	version       string
	buildVersions string
	cached        []byte
}

var globalDictionary = NewDictionary(globalRegistry)

func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:     make(map[string]*Constant),
		enumerations:  make(map[string]*Enumeration),
		commandReg:    cmdReg,
		version:       "wheelbot-" + protocol.Version,
		buildVersions: "go",
	}
}

// RegisterConstant publishes a constant in the global dictionary.
func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

// RegisterEnumeration publishes an enumeration in the global dictionary.
func RegisterEnumeration(name string, values []string) {
	globalDictionary.AddEnumeration(name, values)
}

func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{Name: name, Value: value}
	d.cached = nil
}

func (d *Dictionary) AddEnumeration(name string, values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerations[name] = &Enumeration{
		Name:   name,
		Values: append([]string(nil), values...),
	}
	d.cached = nil
}

func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = versions
	d.cached = nil
}

// BuildDictionary renders and caches the JSON. Call it after every command is
// registered; later registrations need another call.
func (d *Dictionary) BuildDictionary() {
	// Registry lock first, then ours, never nested the other way.
	commands, responses := d.commandReg.GetCommandsAndResponses()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = d.buildJSONLocked(commands, responses)
	DebugPrintln("[dict] " + itoa(len(commands)) + " commands, " +
		itoa(len(responses)) + " responses, " + itoa(len(d.cached)) + " bytes")
}

// Generate returns the dictionary JSON, building it if needed.
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}
	d.BuildDictionary()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

func (d *Dictionary) buildJSONLocked(commands, responses map[string]int) []byte {
	out := make([]byte, 0, 1024)
	out = append(out, `{"version":`...)
	out = appendJSONString(out, d.version)
	out = append(out, `,"build_versions":`...)
	out = appendJSONString(out, d.buildVersions)

	out = append(out, `,"config":{`...)
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendJSONString(out, name)
		out = append(out, ':')
		out = appendJSONString(out, valueToString(d.constants[name].Value))
	}

	out = append(out, `},"commands":`...)
	out = appendIDMap(out, commands)
	out = append(out, `,"responses":`...)
	out = appendIDMap(out, responses)

	if len(d.enumerations) > 0 {
		out = append(out, `,"enumerations":{`...)
		enumNames := make([]string, 0, len(d.enumerations))
		for name := range d.enumerations {
			enumNames = append(enumNames, name)
		}
		sort.Strings(enumNames)
		for i, name := range enumNames {
			if i > 0 {
				out = append(out, ',')
			}
			out = appendJSONString(out, name)
			out = append(out, ":{"...)
			first := true
			for idx, value := range d.enumerations[name].Values {
				if value == "" {
					continue
				}
				if !first {
					out = append(out, ',')
				}
				out = appendJSONString(out, value)
				out = append(out, ':')
				out = append(out, itoa(idx)...)
				first = false
			}
			out = append(out, '}')
		}
		out = append(out, '}')
	}
	return append(out, '}')
}

// appendIDMap writes signature:ID pairs ordered by ID.
func appendIDMap(out []byte, m map[string]int) []byte {
	sigs := make([]string, 0, len(m))
	for sig := range m {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return m[sigs[i]] < m[sigs[j]] })

	out = append(out, '{')
	for i, sig := range sigs {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendJSONString(out, sig)
		out = append(out, ':')
		out = append(out, itoa(m[sig])...)
	}
	return append(out, '}')
}

// GetChunk returns up to count bytes of the dictionary from offset; an
// empty chunk marks the end.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	return append([]byte(nil), data[offset:end]...)
}

func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}
