package mcu

import (
	"errors"
	"fmt"
	"strings"

	"wheelbot/protocol"
)

var (
	ErrBadFormat = errors.New("bad message format")
	ErrArgCount  = errors.New("wrong number of arguments")
)

// ParamType is how one parameter travels on the wire.
type ParamType uint8

const (
	ParamUint ParamType = iota
	ParamInt
	ParamBytes
)

// Param is one "name=%x" field of a message format.
type Param struct {
	Name string
	Type ParamType
}

// Format describes one command or response from the dictionary.
type Format struct {
	ID     uint16
	Name   string
	Params []Param
}

// ParseFormat parses a dictionary signature such as
// "set_motor side=%c speed=%i".
func ParseFormat(signature string) (*Format, error) {
	fields := strings.Fields(signature)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrBadFormat)
	}
	f := &Format{Name: fields[0]}
	for _, field := range fields[1:] {
		name, verb, ok := strings.Cut(field, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q in %q", ErrBadFormat, field, signature)
		}
		var typ ParamType
		switch verb {
		case "%c", "%u", "%hu":
			typ = ParamUint
		case "%i", "%hi":
			typ = ParamInt
		case "%s", "%*s", "%.*s":
			typ = ParamBytes
		default:
			return nil, fmt.Errorf("%w: verb %q in %q", ErrBadFormat, verb, signature)
		}
		f.Params = append(f.Params, Param{Name: name, Type: typ})
	}
	return f, nil
}

// Encode writes args in parameter order. Byte parameters cannot be given
// as integers.
func (f *Format) Encode(output protocol.OutputBuffer, args ...int64) error {
	if len(args) != len(f.Params) {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, f.Name, len(f.Params), len(args))
	}
	for i, p := range f.Params {
		switch p.Type {
		case ParamUint:
			protocol.EncodeVLQUint(output, uint32(args[i]))
		case ParamInt:
			protocol.EncodeVLQInt(output, int32(args[i]))
		default:
			return fmt.Errorf("%w: %s.%s is a byte field", ErrBadFormat, f.Name, p.Name)
		}
	}
	return nil
}

// Params holds decoded response fields by name.
type Params struct {
	Name  string
	Ints  map[string]int64
	Bytes map[string][]byte
}

// Int returns an integer field, 0 if absent.
func (p Params) Int(name string) int64 {
	return p.Ints[name]
}

// Uint returns an integer field as uint32.
func (p Params) Uint(name string) uint32 {
	return uint32(p.Ints[name])
}

// Decode reads the fields that follow the message ID.
func (f *Format) Decode(payload []byte) (Params, error) {
	params := Params{
		Name:  f.Name,
		Ints:  make(map[string]int64, len(f.Params)),
		Bytes: make(map[string][]byte),
	}
	for _, p := range f.Params {
		switch p.Type {
		case ParamUint:
			v, err := protocol.DecodeVLQUint(&payload)
			if err != nil {
				return params, fmt.Errorf("decoding %s.%s: %w", f.Name, p.Name, err)
			}
			params.Ints[p.Name] = int64(v)
		case ParamInt:
			v, err := protocol.DecodeVLQInt(&payload)
			if err != nil {
				return params, fmt.Errorf("decoding %s.%s: %w", f.Name, p.Name, err)
			}
			params.Ints[p.Name] = int64(v)
		case ParamBytes:
			b, err := protocol.DecodeVLQBytes(&payload)
			if err != nil {
				return params, fmt.Errorf("decoding %s.%s: %w", f.Name, p.Name, err)
			}
			params.Bytes[p.Name] = b
		}
	}
	return params, nil
}

// String renders the params like the firmware's debug output.
func (p Params) String() string {
	var sb strings.Builder
	sb.WriteString(p.Name)
	for name, v := range p.Ints {
		fmt.Fprintf(&sb, " %s=%d", name, v)
	}
	for name, b := range p.Bytes {
		fmt.Fprintf(&sb, " %s=%q", name, b)
	}
	return sb.String()
}
