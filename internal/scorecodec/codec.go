// Package scorecodec implements the signed score encoding used by the
// anniversary40 game API.
//
// A score is submitted as base64("{score}.{epochMillis}.{signature}")
// where the signature is the lowercase hex HMAC-SHA256 of
// "{score}.{epochMillis}" under a shared secret. Both score and
// timestamp are plain decimal integers, so the "." delimiter can never
// appear inside either part.
//
// Decode never returns an error: structural failures and signature
// mismatches are both reported through the Result value so callers can
// treat an invalid submission as data rather than a fault.
package scorecodec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Delimiter joins score, timestamp and signature in the encoded payload.
const Delimiter = "."

// ErrMalformed reports input that does not decode to the expected
// three-part payload. Decode wraps it with the specific failure.
var ErrMalformed = errors.New("scorecodec: malformed encoded score")

// Codec signs and verifies encoded scores under a fixed secret.
// The secret is read-only after construction; a Codec is safe for
// concurrent use.
type Codec struct {
	secret []byte
}

// New creates a codec with the given shared secret.
func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Sign computes the lowercase hex HMAC-SHA256 signature for the
// "{score}.{tsMillis}" payload.
func (c *Codec) Sign(score, tsMillis int64) string {
	mac := hmac.New(sha256.New, c.secret)
	payload := fmt.Sprintf("%d%s%d", score, Delimiter, tsMillis)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode signs the score against the current wall clock and returns the
// base64 submission string. It cannot fail.
func (c *Codec) Encode(score int64) string {
	return c.EncodeAt(score, time.Now())
}

// EncodeAt is Encode with an explicit timestamp. Deterministic given
// (score, at, secret); used for golden-value verification.
func (c *Codec) EncodeAt(score int64, at time.Time) string {
	ts := at.UnixMilli()
	payload := fmt.Sprintf("%d%s%d", score, Delimiter, ts)
	full := payload + Delimiter + c.Sign(score, ts)
	return base64.StdEncoding.EncodeToString([]byte(full))
}

// Result is the outcome of decoding a submission string.
//
// Err is non-nil only for structural failures (bad base64, wrong part
// count, non-numeric score or timestamp) and always wraps ErrMalformed.
// A structurally sound payload whose signature does not verify has
// Err == nil and Valid == false; callers must check Valid explicitly.
type Result struct {
	Score     int64
	Timestamp int64
	Time      time.Time
	Signature string
	Valid     bool
	Err       error
}

// Decode parses and verifies an encoded submission. All failures are
// captured in the Result; nothing propagates as an error return.
func (c *Codec) Decode(encoded string) Result {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: base64: %v", ErrMalformed, err)}
	}

	parts := strings.Split(string(raw), Delimiter)
	if len(parts) != 3 {
		return Result{Err: fmt.Errorf("%w: want 3 parts, got %d", ErrMalformed, len(parts))}
	}

	score, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: score %q is not an integer", ErrMalformed, parts[0])}
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: timestamp %q is not an integer", ErrMalformed, parts[1])}
	}

	// Verification recomputes the signature over the rebuilt payload,
	// so a payload with leading zeros or a "+" sign cannot verify even
	// if it was signed with a matching raw string.
	want := c.Sign(score, ts)

	return Result{
		Score:     score,
		Timestamp: ts,
		Time:      time.UnixMilli(ts),
		Signature: parts[2],
		Valid:     hmac.Equal([]byte(want), []byte(parts[2])),
	}
}
