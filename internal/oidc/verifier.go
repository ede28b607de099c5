// Copyright 2026 The myAdmin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oidc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures a Verifier. JWKSURL defaults to the Cognito location
// under Issuer. When HMACSecret is set, HS256 tokens are accepted as well.
type Config struct {
	Issuer     string
	JWKSURL    string
	ClientID   string
	HMACSecret string
	Leeway     time.Duration
	HTTPClient *http.Client
}

// Verifier validates bearer tokens issued by the identity provider.
type Verifier struct {
	cfg  Config
	keys *keySet
}

// NewVerifier creates a verifier. At least one of Issuer, JWKSURL or
// HMACSecret must be set.
func NewVerifier(cfg Config) (*Verifier, error) {
	jwksURL := cfg.JWKSURL
	if jwksURL == "" && cfg.Issuer != "" {
		jwksURL = strings.TrimSuffix(cfg.Issuer, "/") + "/.well-known/jwks.json"
	}
	if jwksURL == "" && cfg.HMACSecret == "" {
		return nil, ErrNoKeySource
	}

	v := &Verifier{cfg: cfg}
	if jwksURL != "" {
		v.keys = newKeySet(jwksURL, cfg.HTTPClient, time.Minute)
	}
	return v, nil
}

// Verify checks the signature and standard claims of raw and returns its
// claims. Cognito access tokens carry no email, so only id tokens are
// accepted when token_use is present.
func (v *Verifier) Verify(ctx context.Context, raw string) (jwt.MapClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods()),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.Leeway),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.keyFor(ctx, t)
	}, opts...)
	if err != nil {
		return nil, invalid("parse", err)
	}

	if use, ok := claims["token_use"]; ok && use != "id" {
		return nil, invalid("token_use", nil)
	}
	if v.cfg.ClientID != "" && !v.audienceMatches(claims) {
		return nil, invalid("audience", nil)
	}
	return claims, nil
}

func (v *Verifier) methods() []string {
	var m []string
	if v.keys != nil {
		m = append(m, jwt.SigningMethodRS256.Alg())
	}
	if v.cfg.HMACSecret != "" {
		m = append(m, jwt.SigningMethodHS256.Alg())
	}
	return m
}

func (v *Verifier) keyFor(ctx context.Context, t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return []byte(v.cfg.HMACSecret), nil
	case *jwt.SigningMethodRSA:
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return v.keys.key(ctx, kid)
	default:
		return nil, errors.New("unexpected signing method")
	}
}

// audienceMatches looks for the client id in aud, then in client_id.
func (v *Verifier) audienceMatches(claims jwt.MapClaims) bool {
	if aud, err := claims.GetAudience(); err == nil {
		for _, a := range aud {
			if a == v.cfg.ClientID {
				return true
			}
		}
	}
	cid, _ := claims["client_id"].(string)
	return cid == v.cfg.ClientID
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
