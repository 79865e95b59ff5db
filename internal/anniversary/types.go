package anniversary

import "time"

// CanStartResult is the response of the can-start eligibility check.
type CanStartResult struct {
	CanStart         int   `json:"can_start"`
	TotalPoints      int64 `json:"total_points"`
	RemainingChances int   `json:"remaining_chances"`
}

// Allowed returns true if the player may start another game.
func (r *CanStartResult) Allowed() bool {
	return r.CanStart == 1
}

// StartGameResult is the response of the start-game call.
type StartGameResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FinishRequest contains the parameters for a finish-game submission.
type FinishRequest struct {
	// MissionName identifies the game variant being reported
	// (e.g. "shooter", "rocket").
	MissionName string

	// Points is the raw score; it is signed and encoded before
	// submission.
	Points int64

	// Duration is the reported play time. When positive it is sent in
	// the "What" header; when zero the header is omitted.
	Duration time.Duration
}

// FinishResult is the response of the finish-game call.
type FinishResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// finishGameBody is the wire shape of the finish-game POST body.
type finishGameBody struct {
	MissionName  string `json:"mission_name"`
	PointsEarned string `json:"points_earned"`
}
