package core

import (
	"bytes"
	"encoding/json"
	"testing"
)

type dictJSON struct {
	Version      string                    `json:"version"`
	Config       map[string]string         `json:"config"`
	Commands     map[string]int            `json:"commands"`
	Responses    map[string]int            `json:"responses"`
	Enumerations map[string]map[string]int `json:"enumerations"`
}

func newTestDictionary() *Dictionary {
	reg := NewCommandRegistry()
	reg.Register("identify_response", "offset=%u data=%*s", nil)
	reg.Register("identify", "offset=%u count=%c", func(*[]byte) error { return nil })
	reg.Register("drive", "speed=%i", func(*[]byte) error { return nil })
	reg.Register("stop", "", func(*[]byte) error { return nil })

	dict := NewDictionary(reg)
	dict.AddConstant("LED_COUNT", 12)
	dict.AddConstant("BOARD", "bitbot")
	dict.AddEnumeration("side", []string{"left", "right", "all"})
	return dict
}

func TestDictionaryJSON(t *testing.T) {
	var got dictJSON
	if err := json.Unmarshal(newTestDictionary().Generate(), &got); err != nil {
		t.Fatalf("dictionary is not valid JSON: %v", err)
	}

	if got.Version != "wheelbot-0.2.0" {
		t.Errorf("version = %q", got.Version)
	}
	if got.Config["LED_COUNT"] != "12" || got.Config["BOARD"] != "bitbot" {
		t.Errorf("config = %v", got.Config)
	}
	if got.Responses["identify_response offset=%u data=%*s"] != 0 {
		t.Errorf("responses = %v", got.Responses)
	}
	wantCommands := map[string]int{
		"identify offset=%u count=%c": 1,
		"drive speed=%i":              2,
		"stop":                        3,
	}
	for sig, id := range wantCommands {
		if got.Commands[sig] != id {
			t.Errorf("command %q = %d, want %d", sig, got.Commands[sig], id)
		}
	}
	if got.Enumerations["side"]["right"] != 1 {
		t.Errorf("enumerations = %v", got.Enumerations)
	}
}

func TestDictionaryChunks(t *testing.T) {
	dict := newTestDictionary()
	full := dict.Generate()

	var joined []byte
	for offset := uint32(0); ; {
		chunk := dict.GetChunk(offset, 40)
		if len(chunk) == 0 {
			break
		}
		if len(chunk) > 40 {
			t.Fatalf("chunk of %d bytes", len(chunk))
		}
		joined = append(joined, chunk...)
		offset += uint32(len(chunk))
	}
	if !bytes.Equal(joined, full) {
		t.Error("reassembled chunks differ from the dictionary")
	}
}

func TestDictionaryRebuildsAfterConstant(t *testing.T) {
	dict := newTestDictionary()
	before := dict.Generate()
	dict.AddConstant("SPEED_MAX", SpeedMax)
	after := dict.Generate()
	if bytes.Equal(before, after) {
		t.Error("constant added after build is missing")
	}
	if !bytes.Contains(after, []byte(`"SPEED_MAX":"1023"`)) {
		t.Errorf("dictionary = %s", after)
	}
}
