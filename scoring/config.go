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
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the connection settings for the backend, read from the
// CREASE_* environment. Flags in the CLI override individual fields.
type Config struct {
	// ServerURL is the REST API base, e.g. "https://api.example.com/api".
	ServerURL string `envconfig:"SERVER_URL" required:"true"`
	// SocketURL is the realtime endpoint. Derived from ServerURL when
	// empty (https -> wss on /ws).
	SocketURL string `envconfig:"SOCKET_URL"`
	// Token is the access token; empty means spectate unauthenticated.
	Token string `envconfig:"TOKEN"`

	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ReconnectAttempts int           `envconfig:"RECONNECT_ATTEMPTS" default:"5"`
	ReconnectDelay    time.Duration `envconfig:"RECONNECT_DELAY" default:"2s"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("crease", &c); err != nil {
		return nil, err
	}
	if c.SocketURL == "" {
		ws, err := deriveSocketURL(c.ServerURL)
		if err != nil {
			return nil, err
		}
		c.SocketURL = ws
	}
	return &c, nil
}

func deriveSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/api")
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
