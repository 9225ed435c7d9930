package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// Signer produces the authentication headers for one request. The client
// treats it as opaque; it only supplies method, path and query string.
type Signer interface {
	Headers(method, path, query string) map[string]string
}

// HMACSigner signs requests the OKX way: base64(HMAC-SHA256(secret,
// timestamp+method+path+query)) plus the OK-ACCESS-* header set.
type HMACSigner struct {
	APIKey     string
	SecretKey  string
	Passphrase string
	ProjectID  string
	now        func() time.Time
}

func NewHMACSigner(apiKey, secretKey, passphrase, projectID string) *HMACSigner {
	return &HMACSigner{
		APIKey:     apiKey,
		SecretKey:  secretKey,
		Passphrase: passphrase,
		ProjectID:  projectID,
		now:        time.Now,
	}
}

func (s *HMACSigner) Headers(method, path, query string) map[string]string {
	timestamp := s.now().UTC().Format("2006-01-02T15:04:05.000Z")
	mac := hmac.New(sha256.New, []byte(s.SecretKey))
	mac.Write([]byte(timestamp + method + path + query))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"Content-Type":         "application/json",
		"OK-ACCESS-KEY":        s.APIKey,
		"OK-ACCESS-SIGN":       signature,
		"OK-ACCESS-TIMESTAMP":  timestamp,
		"OK-ACCESS-PASSPHRASE": s.Passphrase,
		"OK-ACCESS-PROJECT":    s.ProjectID,
	}
}
