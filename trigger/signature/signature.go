package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// SecretPrefix is the prefix for Standard Webhooks symmetric secrets
	SecretPrefix = "whsec_"

	// Version is the version identifier for symmetric signatures
	Version = "v1"

	// MinSecretBytes is the minimum accepted secret size (192 bits)
	MinSecretBytes = 24

	// MaxSecretBytes is the maximum accepted secret size (512 bits)
	MaxSecretBytes = 64

	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

/* Signer adds Standard Webhooks headers to outbound go-live calls
 * so deployment providers that verify signatures can accept them
 */
type Signer struct {
	key []byte
}

// NewSigner parses a whsec_ secret
func NewSigner(secret string) (*Signer, error) {
	if !strings.HasPrefix(secret, SecretPrefix) {
		return nil, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, SecretPrefix))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(key) < MinSecretBytes || len(key) > MaxSecretBytes {
		return nil, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	return &Signer{key: key}, nil
}

// Sign returns "v1,<base64>" over {msgID}.{timestamp}.{payload}
func (s *Signer) Sign(msgID string, timestamp time.Time, payload []byte) (string, error) {
	if msgID == "" || strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message ID must be non-empty and must not contain '.'")
	}
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s.%d.", msgID, timestamp.Unix())
	mac.Write(payload)
	return Version + "," + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Apply sets the webhook-id, webhook-timestamp and webhook-signature headers
func (s *Signer) Apply(h http.Header, msgID string, timestamp time.Time, payload []byte) error {
	sig, err := s.Sign(msgID, timestamp, payload)
	if err != nil {
		return fmt.Errorf("signing payload: %w", err)
	}
	h.Set(HeaderID, msgID)
	h.Set(HeaderTimestamp, strconv.FormatInt(timestamp.Unix(), 10))
	h.Set(HeaderSignature, sig)
	return nil
}

// Verify checks a space-delimited webhook-signature header in constant time
func (s *Signer) Verify(msgID string, timestamp time.Time, payload []byte, header string) bool {
	expected, err := s.Sign(msgID, timestamp, payload)
	if err != nil {
		return false
	}
	for _, candidate := range strings.Fields(header) {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(expected)) == 1 {
			return true
		}
	}
	return false
}
