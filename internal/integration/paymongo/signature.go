package paymongo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the header PayMongo signs deliveries with.
const SignatureHeader = "Paymongo-Signature"

// VerifySignature checks that rawBody genuinely originated from PayMongo.
// The header is a comma-separated list of key=value parts carrying a
// timestamp (t) and a test (te) or live (li) signature. The signed string
// is "{t}.{rawBody}" and the signature is hex-encoded HMAC-SHA256 under
// the shared webhook secret.
//
// The function fails closed: a missing or unparsable header, a missing
// secret, or malformed signature bytes all yield false, never a panic.
// The exact delivered bytes must be passed in; a reserialized body will
// not verify.
func VerifySignature(rawBody []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}

	var timestamp, testSig, liveSig string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "te":
			testSig = value
		case "li":
			liveSig = value
		}
	}

	if timestamp == "" || (testSig == "" && liveSig == "") {
		return false
	}

	// Live signature wins when both are present.
	signature := liveSig
	if signature == "" {
		signature = testSig
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)

	// hmac.Equal is constant-time; a plain byte comparison here would be
	// a timing side-channel.
	return hmac.Equal(provided, mac.Sum(nil))
}
