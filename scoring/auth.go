// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scoring

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the access token attached to REST requests and
// the realtime handshake. Session management is outside this package;
// callers wrap their auth layer in this interface.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource for a fixed token string. An empty
// token means unauthenticated access (public spectating).
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// tokenExpired inspects the token's exp claim without verifying the
// signature; the server is the verifier, the client only wants to skip
// a reconnect attempt that is guaranteed to be rejected. Tokens that
// are not parseable JWTs, or carry no exp, are assumed usable.
func tokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
