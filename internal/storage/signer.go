package storage

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const downloadAudience = "document-download"

// DefaultURLTTL is used when a signer is built with a non-positive TTL.
const DefaultURLTTL = 15 * time.Minute

// DownloadClaims identify one object a bearer may read until expiry.
type DownloadClaims struct {
	DocumentID string `json:"doc"`
	ObjectKey  string `json:"key"`
	FileName   string `json:"name"`
	MimeType   string `json:"mime"`
	jwt.RegisteredClaims
}

// URLSigner mints and verifies download links.
type URLSigner struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewURLSigner returns a signer producing links under baseURL.
func NewURLSigner(secret, baseURL string, ttl time.Duration) *URLSigner {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &URLSigner{secret: []byte(secret), baseURL: baseURL, ttl: ttl, now: time.Now}
}

// Sign returns the download URL and its expiry.
func (s *URLSigner) Sign(userID string, c DownloadClaims) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{downloadAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return s.baseURL + "/api/v1/documents/download?token=" + url.QueryEscape(token), exp, nil
}

// Verify parses a token minted by Sign.
func (s *URLSigner) Verify(token string) (*DownloadClaims, error) {
	claims := &DownloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithAudience(downloadAudience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ObjectKey == "" {
		return nil, errors.New("invalid download token")
	}
	return claims, nil
}
