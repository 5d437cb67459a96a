package paymongo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(t *testing.T, body []byte, timestamp, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test_secret"
	body := []byte(`{"data":{"id":"evt_123","type":"event"}}`)
	timestamp := "1725148800"
	sig := signBody(t, body, timestamp, secret)

	t.Run("valid test signature", func(t *testing.T) {
		header := fmt.Sprintf("t=%s,te=%s", timestamp, sig)
		assert.True(t, VerifySignature(body, header, secret))
	})

	t.Run("valid live signature", func(t *testing.T) {
		header := fmt.Sprintf("t=%s,li=%s", timestamp, sig)
		assert.True(t, VerifySignature(body, header, secret))
	})

	t.Run("live signature preferred over test", func(t *testing.T) {
		// A bogus test signature must not matter when the live one is valid.
		header := fmt.Sprintf("t=%s,te=%s,li=%s", timestamp, "deadbeef", sig)
		assert.True(t, VerifySignature(body, header, secret))

		// And a valid test signature must not rescue a bogus live one.
		header = fmt.Sprintf("t=%s,te=%s,li=%s", timestamp, sig, "deadbeef")
		assert.False(t, VerifySignature(body, header, secret))
	})

	t.Run("whitespace around parts tolerated", func(t *testing.T) {
		header := fmt.Sprintf(" t=%s , te=%s ", timestamp, sig)
		assert.True(t, VerifySignature(body, header, secret))
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := fmt.Sprintf("t=%s,te=%s", timestamp, sig)
		assert.False(t, VerifySignature(body, header, "whsec_other_secret"))
	})

	t.Run("tampered body", func(t *testing.T) {
		header := fmt.Sprintf("t=%s,te=%s", timestamp, sig)
		tampered := []byte(`{"data":{"id":"evt_999","type":"event"}}`)
		assert.False(t, VerifySignature(tampered, header, secret))
	})

	t.Run("wrong timestamp", func(t *testing.T) {
		header := fmt.Sprintf("t=%s,te=%s", "1725148801", sig)
		assert.False(t, VerifySignature(body, header, secret))
	})

	t.Run("rejection matrix", func(t *testing.T) {
		cases := map[string]string{
			"empty header":           "",
			"missing timestamp":      fmt.Sprintf("te=%s", sig),
			"missing signatures":     fmt.Sprintf("t=%s", timestamp),
			"malformed hex":          fmt.Sprintf("t=%s,te=zzzz", timestamp),
			"no key value pairs":     "garbage header",
			"unknown keys only":      "a=1,b=2",
			"empty signature value":  fmt.Sprintf("t=%s,te=", timestamp),
			"equals without key":     "=value",
		}
		for name, header := range cases {
			assert.False(t, VerifySignature(body, header, secret), name)
		}
	})

	t.Run("empty secret fails closed", func(t *testing.T) {
		header := fmt.Sprintf("t=%s,te=%s", timestamp, sig)
		assert.False(t, VerifySignature(body, header, ""))
	})

	t.Run("empty body", func(t *testing.T) {
		emptySig := signBody(t, nil, timestamp, secret)
		header := fmt.Sprintf("t=%s,te=%s", timestamp, emptySig)
		assert.True(t, VerifySignature(nil, header, secret))
	})
}
