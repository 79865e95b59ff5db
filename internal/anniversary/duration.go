package anniversary

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// The web client reports elapsed play time through an obfuscated
// header named "What": the duration in milliseconds shifted by a fixed
// offset. The offset matches what the game's bundle adds before
// submission.
const (
	whatHeader = "What"
	whatOffset = 1327 * time.Millisecond
)

// Play-time synthesis bounds. A round takes at least half a minute and
// the games cap out near three minutes regardless of score.
const (
	minPlayTime  = 30 * time.Second
	maxPlayTime  = 170 * time.Second
	perPointTime = 12 * time.Millisecond
)

// whatValue renders a duration for the What header.
func whatValue(d time.Duration) string {
	return strconv.FormatInt((d + whatOffset).Milliseconds(), 10)
}

// RealisticDuration synthesizes a plausible play time for the given
// score: a base floor plus score-proportional time, jittered by ±15% so
// repeated submissions do not report identical durations.
func RealisticDuration(score int64) time.Duration {
	d := minPlayTime + time.Duration(score)*perPointTime
	if d < minPlayTime {
		d = minPlayTime
	}
	if d > maxPlayTime {
		d = maxPlayTime
	}
	jitter := 0.85 + rand.Float64()*0.3
	return time.Duration(float64(d) * jitter).Round(time.Millisecond)
}
