/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDisabledClientSendsNothing(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(Config{EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash"})
	c.Event("ignored", nil)
	c.UploadCrash([]byte("ignored"))
	c.Flush(context.Background())
	c.Close()

	c2 := New(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	c2.Event("", nil)
	c2.Close()

	var nilClient *Client
	nilClient.Event("x", nil)
	nilClient.Flush(context.Background())
	nilClient.Close()

	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("got %d requests, want none", n)
	}
}

func TestPostReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Errorf("missing user agent")
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, Timeout: time.Second})
	if err := c.post(srv.URL, "text/plain", []byte("x")); err == nil {
		t.Fatalf("expected error for 503")
	}
	if err := c.post("http://127.0.0.1:1/events", "text/plain", []byte("x")); err == nil {
		t.Fatalf("expected error for unreachable host")
	}
}

func TestSendFailuresDoNotBlock(t *testing.T) {
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      50 * time.Millisecond,
		DebugLogging: true,
	})
	c.ScenarioLoaded(ScenarioStats{Scenes: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)
	c.UploadCrash([]byte("oops"))
	c.Close()
}
