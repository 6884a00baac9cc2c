package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Tuning gathers every value two peers must agree on before simulating
// together. The matchmaking handshake compares checksums of this struct, so
// any field change invalidates sessions against older builds.
//
// It is shared with the schema generator so deployments can validate
// overrides against a machine-readable document.
type Tuning struct {
	TickRate               int     `json:"tickRate" jsonschema:"title=Tick rate,minimum=1,description=Fixed simulation frames per second"`
	InputDelayFrames       int64   `json:"inputDelayFrames" jsonschema:"title=Input delay,minimum=0,description=Frames between sampling a local input and applying it"`
	PlayerSize             float64 `json:"playerSize" jsonschema:"title=Player size,description=Player diameter in world units"`
	BoardSize              float64 `json:"boardSize" jsonschema:"title=Board size,description=Play field diameter in world units"`
	TrailLengthFrames      uint32  `json:"trailLengthFrames" jsonschema:"title=Trail length,minimum=1,description=Frames a trail dot persists before decaying"`
	TrailSize              float64 `json:"trailSize" jsonschema:"title=Trail size,description=Trail dot diameter in world units"`
	MoveSpeed              float64 `json:"moveSpeed" jsonschema:"title=Move speed,description=Forward distance covered each frame"`
	TurnRate               float64 `json:"turnRate" jsonschema:"title=Turn rate,description=Radians turned per frame while steering"`
	DashMultiplier         float64 `json:"dashMultiplier" jsonschema:"title=Dash multiplier,description=Speed factor applied while dash is held"`
	TrailSpawnPeriodFrames uint32  `json:"trailSpawnPeriodFrames" jsonschema:"title=Trail spawn period,minimum=1,description=Frames between trail dots"`
}

// DefaultTuning returns the stock arena parameters.
func DefaultTuning() Tuning {
	return Tuning{
		TickRate:               60,
		InputDelayFrames:       2,
		PlayerSize:             0.75,
		BoardSize:              9.0,
		TrailLengthFrames:      80,
		TrailSize:              0.2,
		MoveSpeed:              0.03,
		TurnRate:               0.13,
		DashMultiplier:         2.0,
		TrailSpawnPeriodFrames: 2,
	}
}

// Normalized returns a tuning with defaults applied to out-of-range values.
func (t Tuning) Normalized() Tuning {
	defaults := DefaultTuning()
	normalized := t
	if normalized.TickRate <= 0 {
		normalized.TickRate = defaults.TickRate
	}
	if normalized.InputDelayFrames < 0 {
		normalized.InputDelayFrames = defaults.InputDelayFrames
	}
	if normalized.PlayerSize <= 0 {
		normalized.PlayerSize = defaults.PlayerSize
	}
	if normalized.BoardSize <= 0 {
		normalized.BoardSize = defaults.BoardSize
	}
	if normalized.TrailLengthFrames < 1 {
		normalized.TrailLengthFrames = defaults.TrailLengthFrames
	}
	if normalized.TrailSize <= 0 {
		normalized.TrailSize = defaults.TrailSize
	}
	if normalized.MoveSpeed <= 0 {
		normalized.MoveSpeed = defaults.MoveSpeed
	}
	if normalized.TurnRate <= 0 {
		normalized.TurnRate = defaults.TurnRate
	}
	if normalized.DashMultiplier <= 0 {
		normalized.DashMultiplier = defaults.DashMultiplier
	}
	if normalized.TrailSpawnPeriodFrames < 1 {
		normalized.TrailSpawnPeriodFrames = defaults.TrailSpawnPeriodFrames
	}
	return normalized
}

// Checksum returns a stable fingerprint of the tuning values.
func (t Tuning) Checksum() string {
	data, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
