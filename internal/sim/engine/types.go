package engine

import (
	"voxedit.ai/internal/protocol"
)

type JoinRequest struct {
	Name string
	// Seed fixes the actor's random source. Zero derives one.
	Seed int64
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

// Input is one client message addressed to an actor. Exactly one of Cmd,
// Click and Pose is set. Inputs are applied in arrival order.
type Input struct {
	ActorID string
	Cmd     *protocol.CmdMsg
	Click   *protocol.ClickMsg
	Pose    *protocol.PoseMsg
}

type RecordedJoin struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
	Seed    int64  `json:"seed"`
}

// RecordedInput is an applied Input plus, for commands, the status it
// produced.
type RecordedInput struct {
	ActorID string             `json:"actor_id"`
	Cmd     *protocol.CmdMsg   `json:"cmd,omitempty"`
	Click   *protocol.ClickMsg `json:"click,omitempty"`
	Pose    *protocol.PoseMsg  `json:"pose,omitempty"`
	Status  string             `json:"status,omitempty"`
	Code    string             `json:"code,omitempty"`
}

func (r RecordedInput) Input() Input {
	return Input{ActorID: r.ActorID, Cmd: r.Cmd, Click: r.Click, Pose: r.Pose}
}

type RecordedDrain struct {
	ActorID string `json:"actor_id"`
	Applied int    `json:"applied"`
	Denied  int    `json:"denied,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Aborted bool   `json:"aborted,omitempty"`
	Changed int    `json:"changed,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick   uint64          `json:"tick"`
	Joins  []RecordedJoin  `json:"joins,omitempty"`
	Leaves []string        `json:"leaves,omitempty"`
	Inputs []RecordedInput `json:"inputs,omitempty"`
	Drains []RecordedDrain `json:"drains,omitempty"`
	Digest string          `json:"digest"`
}

func (e TickLogEntry) empty() bool {
	return len(e.Joins) == 0 && len(e.Leaves) == 0 && len(e.Inputs) == 0 && len(e.Drains) == 0
}

// Audit actions.
const (
	ActionSetVoxel   = "SET_VOXEL"
	ActionClearVoxel = "CLEAR_VOXEL"
	ActionDenied     = "DENIED"
)

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}
