package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/snow-fourth/mc3DDD/internal/protocol"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validateJSON(t *testing.T, s *jsonschema.Schema, payload string) {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validateJSON(t, compileSchema(t, "hello.schema.json"), `{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"viewer"
	}`)

	validateJSON(t, compileSchema(t, "welcome.schema.json"), `{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "world_params":{
	    "tick_rate_hz":60,
	    "chunk_size":8,
	    "render_distance":3,
	    "sea_level":20,
	    "max_height":400,
	    "seed":1337
	  },
	  "spawn":{"position":[0.5,24.5,0.5],"yaw":0}
	}`)

	validateJSON(t, compileSchema(t, "input.schema.json"), `{
	  "type":"INPUT",
	  "keys":{"forward":true,"jump":true},
	  "yaw":1.57
	}`)

	validateJSON(t, compileSchema(t, "place.schema.json"), `{
	  "type":"PLACE",
	  "position":{"x":3,"y":25,"z":3},
	  "material":"stone"
	}`)

	validateJSON(t, compileSchema(t, "remove.schema.json"), `{
	  "type":"REMOVE",
	  "position":{"x":-1,"y":18,"z":7}
	}`)

	validateJSON(t, compileSchema(t, "save.schema.json"), `{
	  "type":"SAVE",
	  "slot":"slot-1"
	}`)

	validateJSON(t, compileSchema(t, "load.schema.json"), `{
	  "type":"LOAD",
	  "slot":"slot-1"
	}`)

	validateJSON(t, compileSchema(t, "state.schema.json"), `{
	  "type":"STATE",
	  "tick":42,
	  "position":[0.5,24.5,0.5],
	  "yaw":0,
	  "grounded":true,
	  "flying":false,
	  "loaded_chunks":49
	}`)

	validateJSON(t, compileSchema(t, "voxels.schema.json"), `{
	  "type":"VOXELS",
	  "tick":42,
	  "rev":7,
	  "blocks":[{"position":{"x":0,"y":20,"z":0},"material":"grass"}],
	  "water":[{"position":{"x":1,"y":19,"z":0},"level":1.0}]
	}`)
}

func TestSchemas_RejectBadPayloads(t *testing.T) {
	place := compileSchema(t, "place.schema.json")
	var v any
	_ = json.Unmarshal([]byte(`{
	  "type":"PLACE",
	  "position":{"x":3,"y":25,"z":3},
	  "material":"water"
	}`), &v)
	if err := place.Validate(v); err == nil {
		t.Fatal("place with water material passed validation")
	}

	input := compileSchema(t, "input.schema.json")
	_ = json.Unmarshal([]byte(`{"type":"INPUT","keys":{"warp":true},"yaw":0}`), &v)
	if err := input.Validate(v); err == nil {
		t.Fatal("input with unknown key passed validation")
	}
}

func TestMessages_MatchSchemas(t *testing.T) {
	state := protocol.StateMsg{
		Type:         protocol.TypeState,
		Tick:         3,
		Position:     [3]float64{1, 24.5, -2},
		Yaw:          0.5,
		Grounded:     true,
		LoadedChunks: 49,
	}
	b, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var v any
	_ = json.Unmarshal(b, &v)
	if err := compileSchema(t, "state.schema.json").Validate(v); err != nil {
		t.Fatalf("StateMsg does not match its schema: %v", err)
	}

	voxels := protocol.VoxelsMsg{
		Type:   protocol.TypeVoxels,
		Tick:   3,
		Rev:    1,
		Blocks: []protocol.WireBlock{{Position: protocol.BlockPos{X: 0, Y: 20, Z: 0}, Material: "grass"}},
		Water:  []protocol.WireWater{{Position: protocol.BlockPos{X: 0, Y: 19, Z: 1}, Level: 1}},
	}
	b, err = json.Marshal(voxels)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_ = json.Unmarshal(b, &v)
	if err := compileSchema(t, "voxels.schema.json").Validate(v); err != nil {
		t.Fatalf("VoxelsMsg does not match its schema: %v", err)
	}
}

func TestDecodeBase(t *testing.T) {
	m, err := protocol.DecodeBase([]byte(`{"type":"INPUT","keys":{},"yaw":0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != protocol.TypeInput {
		t.Fatalf("type = %q", m.Type)
	}
	if _, err := protocol.DecodeBase([]byte(`{nope`)); err == nil {
		t.Fatal("malformed JSON decoded")
	}
}

func TestIsKnownCode(t *testing.T) {
	if !protocol.IsKnownCode(protocol.ErrSlotNotFound) {
		t.Fatal("known code rejected")
	}
	if !protocol.IsKnownCode("") {
		t.Fatal("empty code rejected")
	}
	if protocol.IsKnownCode("E_MADE_UP") {
		t.Fatal("unknown code accepted")
	}
}
