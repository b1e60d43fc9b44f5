// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package logging

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init(Config{Level: "chatty"}); err == nil {
		t.Error("unknown level accepted")
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "debug", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	Info().Str("component", "test").Msg("hello")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if event["message"] != "hello" || event["component"] != "test" {
		t.Errorf("event = %v", event)
	}
	if _, ok := event["time"]; !ok {
		t.Error("event missing timestamp")
	}
}

func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "warn", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	Debug().Msg("suppressed")
	Info().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("below-threshold events written: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn event missing: %q", out)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "info", Format: "console", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { initLogger(DefaultConfig()) })

	Info().Msg("console line")

	out := buf.String()
	if !strings.Contains(out, "console line") {
		t.Errorf("console output missing message: %q", out)
	}
	if json.Valid(buf.Bytes()) {
		t.Error("console format produced raw JSON")
	}
}
