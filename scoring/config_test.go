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
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("CREASE_SERVER_URL", "https://api.example.com/api")
	t.Setenv("CREASE_SOCKET_URL", "")
	t.Setenv("CREASE_TOKEN", "tok")
	t.Setenv("CREASE_RECONNECT_DELAY", "3s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SocketURL != "wss://api.example.com/ws" {
		t.Errorf("SocketURL = %q, want wss://api.example.com/ws", cfg.SocketURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want default 10s", cfg.RequestTimeout)
	}
	if cfg.ReconnectAttempts != 5 {
		t.Errorf("ReconnectAttempts = %d, want default 5", cfg.ReconnectAttempts)
	}
	if cfg.ReconnectDelay != 3*time.Second {
		t.Errorf("ReconnectDelay = %v, want 3s", cfg.ReconnectDelay)
	}
}

func TestLoadConfigMissingServer(t *testing.T) {
	t.Setenv("CREASE_SERVER_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig without CREASE_SERVER_URL should fail")
	}
}

func TestDeriveSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://api.example.com/api", want: "wss://api.example.com/ws"},
		{in: "http://localhost:3000/api", want: "ws://localhost:3000/ws"},
		{in: "https://example.com", want: "wss://example.com/ws"},
		{in: "wss://example.com", want: "wss://example.com/ws"},
		{in: "ftp://example.com", wantErr: true},
	}
	for _, tc := range tests {
		got, err := deriveSocketURL(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("deriveSocketURL(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("deriveSocketURL(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("deriveSocketURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
