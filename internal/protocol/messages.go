package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActorName       string `json:"actor_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ActorID         string     `json:"actor_id"`
	Grid            GridParams `json:"grid"`
	DrainPeriodMs   int        `json:"drain_period_ms"`
	Commands        []string   `json:"commands"`
}

type GridParams struct {
	W int `json:"w"`
	D int `json:"d"`
	H int `json:"h"`
}

// CMD (client -> server): one chat command, without the leading slash.
type CmdMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Name            string   `json:"name"`
	Args            []string `json:"args,omitempty"`
}

// CLICK (client -> server). Target is the block under the cursor; nil when
// nothing is in range.
type ClickMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Button          string  `json:"button"`
	Target          *[3]int `json:"target,omitempty"`
}

// POSE (client -> server)
type PoseMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Pos             [3]int     `json:"pos"`
	Look            [3]float64 `json:"look"`
	Color           string     `json:"color,omitempty"`
}

// STATUS (server -> client)
type StatusMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Text            string `json:"text"`
	Code            string `json:"code,omitempty"`
}

// VOXELS (server -> client): every write applied during one tick.
type VoxelsMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	Cells           []VoxelCell `json:"cells"`
}

// VoxelCell is one applied write. An empty Color clears the cell.
type VoxelCell struct {
	Pos   [3]int `json:"pos"`
	Color string `json:"color"`
}
