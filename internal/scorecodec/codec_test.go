package scorecodec

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "A40@2025-ASDasd!@#123CCCvvvaaa"

// Golden values verified against an independent HMAC-SHA256
// implementation (python hmac/hashlib over the same payloads).
const (
	goldenScore     = int64(5000)
	goldenTimestamp = int64(1700000000000)
	goldenSignature = "78d63566ad5b22b61ef6908e0af83d6b875b165e67ddc1d352ae977378cdb215"
	goldenEncoded   = "NTAwMC4xNzAwMDAwMDAwMDAwLjc4ZDYzNTY2YWQ1YjIyYjYxZWY2OTA4ZTBhZjgzZDZiODc1YjE2NWU2N2RkYzFkMzUyYWU5NzczNzhjZGIyMTU="
)

func TestSignGoldenVectors(t *testing.T) {
	c := New(testSecret)

	tests := []struct {
		name  string
		score int64
		ts    int64
		want  string
	}{
		{"reference vector", 5000, 1700000000000, goldenSignature},
		{"zero score", 0, 1700000000000, "347d8f737597558f52ef2b4ecf9021b6ee1226093a9ed4e7df5464029916a006"},
		{"timestamp plus one", 5000, 1700000000001, "58dd87001ac493023cfc48249c36bf4ecf9e43038ad6e8799a9e4002c7881229"},
		{"negative score", -250, 1711111111111, "2ad4819918e6ae358f560f857520068a6013ae0a090a066a943db8b4c8cf4946"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Sign(tt.score, tt.ts); got != tt.want {
				t.Errorf("Sign(%d, %d) = %s, want %s", tt.score, tt.ts, got, tt.want)
			}
		})
	}
}

func TestEncodeAtGolden(t *testing.T) {
	c := New(testSecret)

	got := c.EncodeAt(goldenScore, time.UnixMilli(goldenTimestamp))
	if got != goldenEncoded {
		t.Fatalf("EncodeAt = %s, want %s", got, goldenEncoded)
	}

	res := c.Decode(got)
	if res.Err != nil {
		t.Fatalf("Decode returned structural error: %v", res.Err)
	}
	if !res.Valid {
		t.Fatal("golden encoding did not verify")
	}
	if res.Score != goldenScore {
		t.Errorf("score = %d, want %d", res.Score, goldenScore)
	}
	if res.Timestamp != goldenTimestamp {
		t.Errorf("timestamp = %d, want %d", res.Timestamp, goldenTimestamp)
	}
	if res.Signature != goldenSignature {
		t.Errorf("signature = %s, want %s", res.Signature, goldenSignature)
	}
	if !res.Time.Equal(time.UnixMilli(goldenTimestamp)) {
		t.Errorf("time = %v, want %v", res.Time, time.UnixMilli(goldenTimestamp))
	}
}

func TestRoundTrip(t *testing.T) {
	c := New(testSecret)

	for _, score := range []int64{0, 1, -1, 5000, 999999999, -987654321} {
		res := c.Decode(c.Encode(score))
		if res.Err != nil {
			t.Fatalf("score %d: decode error: %v", score, res.Err)
		}
		if !res.Valid {
			t.Errorf("score %d: round trip not valid", score)
		}
		if res.Score != score {
			t.Errorf("round trip score = %d, want %d", res.Score, score)
		}
	}
}

func TestSignatureDeterminism(t *testing.T) {
	c := New(testSecret)
	at := time.UnixMilli(1712345678901)

	first := c.EncodeAt(7777, at)
	second := c.EncodeAt(7777, at)
	if first != second {
		t.Error("same (score, timestamp) produced different encodings")
	}

	shifted := c.EncodeAt(7777, at.Add(time.Millisecond))
	if shifted == first {
		t.Error("different timestamps produced identical encodings")
	}
	if c.Decode(shifted).Signature == c.Decode(first).Signature {
		t.Error("different timestamps produced identical signatures")
	}
}

func TestTamperedSignatureRejected(t *testing.T) {
	c := New(testSecret)

	raw, err := base64.StdEncoding.DecodeString(goldenEncoded)
	if err != nil {
		t.Fatal(err)
	}

	// Flip the first signature character.
	parts := strings.SplitN(string(raw), Delimiter, 3)
	sig := []byte(parts[2])
	if sig[0] == 'f' {
		sig[0] = '0'
	} else {
		sig[0] = 'f'
	}
	tampered := base64.StdEncoding.EncodeToString([]byte(parts[0] + Delimiter + parts[1] + Delimiter + string(sig)))

	res := c.Decode(tampered)
	if res.Err != nil {
		t.Fatalf("tampered signature should still parse, got error: %v", res.Err)
	}
	if res.Valid {
		t.Error("tampered signature verified")
	}
}

func TestTamperedScoreRejected(t *testing.T) {
	c := New(testSecret)

	raw, _ := base64.StdEncoding.DecodeString(c.EncodeAt(5000, time.UnixMilli(goldenTimestamp)))
	bumped := strings.Replace(string(raw), "5000", "9000", 1)

	res := c.Decode(base64.StdEncoding.EncodeToString([]byte(bumped)))
	if res.Err != nil {
		t.Fatalf("unexpected structural error: %v", res.Err)
	}
	if res.Valid {
		t.Error("edited score still verified")
	}
	if res.Score != 9000 {
		t.Errorf("score = %d, want the edited 9000", res.Score)
	}
}

func TestDecodeMalformed(t *testing.T) {
	c := New(testSecret)

	b64 := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "not-base64!!"},
		{"two parts", b64("a.b")},
		{"one part", b64("justonepart")},
		{"four parts", b64("1.2.3.4")},
		{"non-numeric score", b64("abc.1700000000000." + goldenSignature)},
		{"non-numeric timestamp", b64("5000.later." + goldenSignature)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Decode(tt.input)
			if res.Err == nil {
				t.Fatal("expected structural error, got nil")
			}
			if !errors.Is(res.Err, ErrMalformed) {
				t.Errorf("error %v does not wrap ErrMalformed", res.Err)
			}
			if res.Valid {
				t.Error("malformed input reported valid")
			}
		})
	}
}

func TestDecodeEmptyBase64Payload(t *testing.T) {
	c := New(testSecret)

	// "" decodes as valid base64 to the empty string, which then fails
	// the three-part split rather than the base64 stage.
	res := c.Decode("")
	if !errors.Is(res.Err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", res.Err)
	}
}

func TestDecodeNormalizesPaddedInteger(t *testing.T) {
	c := New(testSecret)

	// Verification recomputes over the canonical decimal form, so a
	// zero-padded score verifies only against the canonical signature.
	padded := "007.1700000000000"
	sig := New(testSecret).Sign(7, 1700000000000)
	res := c.Decode(base64.StdEncoding.EncodeToString([]byte(padded + Delimiter + sig)))
	if res.Err != nil {
		t.Fatalf("unexpected structural error: %v", res.Err)
	}
	if res.Score != 7 {
		t.Errorf("score = %d, want 7", res.Score)
	}
	if !res.Valid {
		// Sign(7, ts) is exactly the canonical recomputation, so this
		// one does verify; the point is the round trip normalizes.
		t.Error("canonical recomputation should verify")
	}
}

func TestDifferentSecretsDisagree(t *testing.T) {
	a := New(testSecret)
	b := New("some-other-secret")

	enc := a.EncodeAt(5000, time.UnixMilli(goldenTimestamp))
	if b.Decode(enc).Valid {
		t.Error("encoding verified under a different secret")
	}
}
