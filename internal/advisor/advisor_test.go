package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"otc-signals/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func completionServer(t *testing.T, status int, content string, choices bool) (*httptest.Server, chan string) {
	t.Helper()
	bodies := make(chan string, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		select {
		case bodies <- string(body):
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []any{},
		}
		if choices {
			resp["choices"] = []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, bodies
}

func newTestAdvisor(url string) *Advisor {
	return New(Config{APIKey: "test", BaseURL: url + "/", Model: "test-model", Timeout: 2 * time.Second},
		trace.NewNoopTracerProvider().Tracer("test"), zerolog.Nop())
}

func testRequest() Request {
	return Request{
		Pair:      "EUR/USD-OTC",
		Timeframe: domain.TimeframeM1,
		EntryTime: "11:14",
		Price:     1.08512,
		Snapshot:  domain.IndicatorSnapshot{RSI: 61.2, Stochastic: 30, ADX: 25},
		Score:     domain.ScoreResult{Direction: domain.DirectionCall, Strength: domain.StrengthMedium, Confidence: 70},
	}
}

func TestNewWithoutKeyIsNil(t *testing.T) {
	if New(Config{}, trace.NewNoopTracerProvider().Tracer("test"), zerolog.Nop()) != nil {
		t.Fatal("expected nil advisor without api key")
	}
}

func TestAdviseParsesReply(t *testing.T) {
	srv, body := completionServer(t, http.StatusOK, "```json\n{\"direction\":\"call\",\"confidence\":87.4,\"reason\":\"زخم صاعد\"}\n```", true)

	advice, err := newTestAdvisor(srv.URL).Advise(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice.Direction != domain.DirectionCall || advice.Confidence != 87 || advice.Reason != "زخم صاعد" {
		t.Fatalf("unexpected advice %+v", advice)
	}
	sent := <-body
	if !strings.Contains(sent, "EUR/USD-OTC") || !strings.Contains(sent, "test-model") {
		t.Fatalf("expected prompt to carry pair and model, got %s", sent)
	}
}

func TestAdviseUpstreamFailures(t *testing.T) {
	failing, _ := completionServer(t, http.StatusInternalServerError, "", false)
	if _, err := newTestAdvisor(failing.URL).Advise(context.Background(), testRequest()); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable on 500, got %v", err)
	}

	empty, _ := completionServer(t, http.StatusOK, "", false)
	if _, err := newTestAdvisor(empty.URL).Advise(context.Background(), testRequest()); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable on empty choices, got %v", err)
	}
}

func TestAdviseMalformedReply(t *testing.T) {
	srv, _ := completionServer(t, http.StatusOK, "I think it will go up.", true)
	if _, err := newTestAdvisor(srv.URL).Advise(context.Background(), testRequest()); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseAdvice(t *testing.T) {
	cases := []struct {
		name    string
		content string
		ok      bool
	}{
		{"plain", `{"direction":"PUT","confidence":80,"reason":"r"}`, true},
		{"prose around", `Sure! {"direction":"CALL","confidence":91} hope it helps`, true},
		{"bad direction", `{"direction":"UP","confidence":80}`, false},
		{"confidence range", `{"direction":"PUT","confidence":180}`, false},
		{"broken json", `{"direction":`, false},
	}
	for _, tc := range cases {
		_, err := ParseAdvice(tc.content)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, domain.ErrMalformedResponse) {
			t.Fatalf("%s: expected ErrMalformedResponse, got %v", tc.name, err)
		}
	}
}
