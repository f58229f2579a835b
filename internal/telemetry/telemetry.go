/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends anonymous, opt-in usage events and crash reports.
// Events carry counts only; scenario text, titles and player names are never
// sent. Events are queued and posted in batches so a command never waits on
// the network, and Shutdown drains the queue before the process exits.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	applog "gmscenario/internal/log"
	"gmscenario/internal/version"
)

const (
	defaultTimeout   = 1500 * time.Millisecond
	defaultBatchSize = 16
	queueSize        = 64
)

// Config controls telemetry. Nothing is sent unless OptIn is set and the
// matching URL is configured.
//
// FromEnv reads:
//   - GMS_TELEMETRY_OPT_IN: 1, true, yes or on
//   - GMS_TELEMETRY_URL: endpoint receiving event batches
//   - GMS_CRASH_UPLOAD_URL: endpoint receiving crash reports
//   - GMS_TELEMETRY_TIMEOUT_MS: request timeout (default 1500)
//   - GMS_TELEMETRY_DEBUG: log send results at debug level
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	BatchSize    int
	DebugLogging bool
}

// FromEnv builds a Config from GMS_TELEMETRY_* variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:        isTrue(os.Getenv("GMS_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("GMS_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("GMS_CRASH_UPLOAD_URL")),
		DebugLogging: os.Getenv("GMS_TELEMETRY_DEBUG") != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv("GMS_TELEMETRY_TIMEOUT_MS"))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// event is one usage event.
type event struct {
	Name  string         `json:"name"`
	Time  time.Time      `json:"ts"`
	Props map[string]any `json:"props,omitempty"`
}

// batch is the body posted to EventsURL.
type batch struct {
	App     string  `json:"app"`
	Version string  `json:"version"`
	OS      string  `json:"os"`
	Arch    string  `json:"arch"`
	Events  []event `json:"events"`
}

// Client queues events and posts them from a background goroutine. A nil
// or disabled Client accepts every call and does nothing.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client

	events    chan event
	flushes   chan chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New returns a client for cfg and starts its sender when events are enabled.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	c := &Client{
		cfg:     cfg,
		log:     applog.WithComponent("telemetry"),
		http:    &http.Client{Timeout: cfg.Timeout},
		events:  make(chan event, queueSize),
		flushes: make(chan chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if c.Enabled() {
		go c.run()
	} else {
		close(c.stopped)
	}
	return c
}

// Enabled reports whether events are sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues an event. It drops the event when the queue is full.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	ev := event{Name: name, Time: time.Now().UTC()}
	if len(props) > 0 {
		ev.Props = make(map[string]any, len(props))
		for k, v := range props {
			ev.Props[k] = v
		}
	}
	select {
	case c.events <- ev:
	default:
		c.debug("telemetry queue full, event dropped", slog.String("event", name))
	}
}

// Flush posts queued events and waits until they are sent or ctx ends.
func (c *Client) Flush(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	ack := make(chan struct{})
	select {
	case c.flushes <- ack:
	case <-c.stopped:
		return
	case <-ctx.Done():
		return
	}
	select {
	case <-ack:
	case <-ctx.Done():
	}
}

// Close posts what is still queued and stops the sender.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() { close(c.done) })
	<-c.stopped
}

func (c *Client) run() {
	defer close(c.stopped)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var pending []event
	send := func() {
		if len(pending) == 0 {
			return
		}
		c.sendBatch(pending)
		pending = nil
	}
	drain := func() {
		for {
			select {
			case ev := <-c.events:
				pending = append(pending, ev)
			default:
				return
			}
		}
	}

	for {
		select {
		case ev := <-c.events:
			pending = append(pending, ev)
			if len(pending) >= c.cfg.BatchSize {
				send()
			}
		case <-ticker.C:
			send()
		case ack := <-c.flushes:
			drain()
			send()
			close(ack)
		case <-c.done:
			drain()
			send()
			return
		}
	}
}

func (c *Client) sendBatch(events []event) {
	body, err := json.Marshal(batch{
		App:     "gmscenario",
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		Events:  events,
	})
	if err != nil {
		c.debug("telemetry encode failed", slog.Any("err", err))
		return
	}
	if err := c.post(c.cfg.EventsURL, "application/json", body); err != nil {
		c.debug("telemetry send failed", slog.Any("err", err), slog.Int("events", len(events)))
		return
	}
	c.debug("telemetry batch sent", slog.Int("events", len(events)))
}

// UploadCrash posts an anonymized crash report and waits for the request to
// finish, since the process exits right after.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" || len(report) == 0 {
		return
	}
	if err := c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report); err != nil {
		c.debug("crash upload failed", slog.Any("err", err))
		return
	}
	c.debug("crash report uploaded", slog.Int("bytes", len(report)))
}

func (c *Client) post(url, contentType string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "gmscenario/"+version.Version)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("telemetry: %s returned %s", url, resp.Status)
	}
	return nil
}

func (c *Client) debug(msg string, attrs ...any) {
	if c.cfg.DebugLogging {
		c.log.Debug(msg, attrs...)
	}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the package client, creating it from the environment on
// first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// NewDefault replaces the package client with one built from cfg. The
// previous client is closed.
func NewDefault(cfg Config) {
	c := New(cfg)
	defaultMu.Lock()
	prev := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	prev.Close()
}

// Shutdown flushes and stops the package client, if one was created.
func Shutdown(ctx context.Context) {
	defaultMu.Lock()
	c := defaultClient
	defaultClient = nil
	defaultMu.Unlock()
	if c == nil {
		return
	}
	c.Flush(ctx)
	c.Close()
}

// Enabled reports whether the package client sends events.
func Enabled() bool { return Default().Enabled() }

// Event queues an event on the package client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// UploadCrash posts a crash report through the package client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
