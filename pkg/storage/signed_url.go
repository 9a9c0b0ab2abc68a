package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("download token signature mismatch")
	ErrTokenExpired   = errors.New("download token expired")
)

// Grant is what a download token authorises: one stored export file of one job until ExpiresAt.
type Grant struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// Expired reports whether the grant is past its expiry at now.
func (g Grant) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// SignedURLSigner issues HMAC-SHA256 tokens shaped jobID.expiry.base64(path).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A non-positive ttl defaults to one day.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Issue signs a grant for the stored file of jobID.
func (s *SignedURLSigner) Issue(jobID, relPath string) (string, Grant, error) {
	if jobID == "" || relPath == "" || strings.Contains(jobID, ".") {
		return "", Grant{}, ErrTokenMalformed
	}
	if len(s.secret) == 0 {
		return "", Grant{}, errors.New("signing secret missing")
	}
	grant := Grant{JobID: jobID, Path: relPath, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	ts := strconv.FormatInt(grant.ExpiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{jobID, ts, encodedPath, s.sign(jobID, ts, encodedPath)}, ".")
	return token, grant, nil
}

// Verify checks the signature and, unless allowExpired, the expiry. Cleanup
// passes allowExpired to recover the file path of stale exports.
func (s *SignedURLSigner) Verify(token string, allowExpired bool) (Grant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0] == "" {
		return Grant{}, ErrTokenMalformed
	}
	jobID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Grant{}, ErrTokenMalformed
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil || len(rawPath) == 0 {
		return Grant{}, ErrTokenMalformed
	}
	if !hmac.Equal([]byte(s.sign(jobID, ts, encodedPath)), []byte(signature)) {
		return Grant{}, ErrTokenSignature
	}

	grant := Grant{JobID: jobID, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if !allowExpired && grant.Expired(s.now()) {
		return grant, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(jobID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
