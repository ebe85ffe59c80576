package protocol

// BlockPos is an integer voxel coordinate on the wire.
type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	Spawn           SpawnState  `json:"spawn"`
}

type WorldParams struct {
	TickRateHz     int   `json:"tick_rate_hz"`
	ChunkSize      int   `json:"chunk_size"`
	RenderDistance int   `json:"render_distance"`
	SeaLevel       int   `json:"sea_level"`
	MaxHeight      int   `json:"max_height"`
	Seed           int64 `json:"seed"`
}

type SpawnState struct {
	Position [3]float64 `json:"position"`
	Yaw      float64    `json:"yaw"`
}

// INPUT (client -> server): the held movement keys and look direction for
// the next tick. Unlisted keys read as released.
type InputMsg struct {
	Type string    `json:"type"`
	Keys InputKeys `json:"keys"`
	Yaw  float64   `json:"yaw"`
	// Pitch is the vertical look angle in radians, positive up. Movement
	// ignores it; block picking does not.
	Pitch float64 `json:"pitch,omitempty"`
}

type InputKeys struct {
	Forward bool `json:"forward,omitempty"`
	Back    bool `json:"back,omitempty"`
	Left    bool `json:"left,omitempty"`
	Right   bool `json:"right,omitempty"`
	Jump    bool `json:"jump,omitempty"`
	Fly     bool `json:"fly,omitempty"`
	Up      bool `json:"up,omitempty"`
	Down    bool `json:"down,omitempty"`
}

// PLACE (client -> server). Position is optional: when absent the server
// resolves the target from the current look direction, placing against the
// face of the picked block.
type PlaceMsg struct {
	Type     string    `json:"type"`
	Position *BlockPos `json:"position,omitempty"`
	Material string    `json:"material"`
}

// REMOVE (client -> server). Position optional as in PLACE; the picked
// block itself is removed.
type RemoveMsg struct {
	Type     string    `json:"type"`
	Position *BlockPos `json:"position,omitempty"`
}

// SAVE (client -> server): persist the world under a slot name.
type SaveMsg struct {
	Type string `json:"type"`
	Slot string `json:"slot"`
}

// LOAD (client -> server): replace the world from a saved slot.
type LoadMsg struct {
	Type string `json:"type"`
	Slot string `json:"slot"`
}

// STATE (server -> client): the observer after this tick.
type StateMsg struct {
	Type         string     `json:"type"`
	Tick         uint64     `json:"tick"`
	Position     [3]float64 `json:"position"`
	Yaw          float64    `json:"yaw"`
	Grounded     bool       `json:"grounded"`
	Flying       bool       `json:"flying"`
	LoadedChunks int        `json:"loaded_chunks"`
}

// VOXELS (server -> client): the full visible block and water sets. Sent
// only on ticks where the world revision changed.
type VoxelsMsg struct {
	Type   string      `json:"type"`
	Tick   uint64      `json:"tick"`
	Rev    uint64      `json:"rev"`
	Blocks []WireBlock `json:"blocks"`
	Water  []WireWater `json:"water"`
}

type WireBlock struct {
	Position BlockPos `json:"position"`
	Material string   `json:"material"`
}

type WireWater struct {
	Position BlockPos `json:"position"`
	Level    float64  `json:"level"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
