package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/core"
)

func TestBackoffSchedule(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, maxBackoff, maxBackoff}
	for attempt, w := range want {
		if got := exponentialBackoff(attempt); got != w {
			t.Errorf("attempt %d: backoff %v, want %v", attempt, got, w)
		}
	}
	if got := exponentialBackoff(-3); got != time.Second {
		t.Errorf("negative attempt: backoff %v", got)
	}
	if got := exponentialBackoff(40); got != maxBackoff {
		t.Errorf("large attempt: backoff %v", got)
	}
}

func TestRetryableErrors(t *testing.T) {
	retry := []error{
		errNoChannel,
		fmt.Errorf("publish: %w", errNoChannel),
		amqp091.ErrClosed,
		errors.New("dial tcp 127.0.0.1:5672: connection refused"),
		errors.New("unexpected EOF"),
		errors.New("write: broken pipe"),
		errors.New("use of closed network connection"),
	}
	for _, err := range retry {
		if !isConnectionError(err) {
			t.Errorf("%v should be retried", err)
		}
	}

	for _, err := range []error{nil, errors.New("NOT_FOUND - no exchange 'fintrack'"), errInvalidEvent} {
		if isConnectionError(err) {
			t.Errorf("%v should not be retried", err)
		}
	}
}

func TestCircuitBreakerLifecycle(t *testing.T) {
	c := &Client{exchangeName: "fintrack", queueName: "ledger_events"}
	state := func() int32 { return atomic.LoadInt32(&c.state) }

	if c.isCircuitOpen() {
		t.Fatal("new client starts with an open circuit")
	}

	for i := 1; i < maxFailures; i++ {
		c.recordFailure()
	}
	if state() != StateClosed {
		t.Fatalf("circuit opened after %d failures", maxFailures-1)
	}
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatalf("circuit still closed after %d failures", maxFailures)
	}

	// Past the open timeout the next check lets one attempt through.
	c.cbMu.Lock()
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	c.cbMu.Unlock()
	if c.isCircuitOpen() || state() != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", state())
	}

	// A half-open failure reopens immediately.
	atomic.StoreInt64(&c.failureCount, 0)
	c.recordFailure()
	if state() != StateOpen {
		t.Fatalf("state = %d, want open after half-open failure", state())
	}

	c.recordSuccess()
	if state() != StateClosed || atomic.LoadInt64(&c.failureCount) != 0 {
		t.Fatalf("success did not close the circuit: state=%d failures=%d", state(), c.failureCount)
	}
}

func TestPublishShortCircuits(t *testing.T) {
	ev := NewLedgerEvent(core.TypeExpense, 123, 7, true)

	open := &Client{exchangeName: "fintrack", queueName: "ledger_events"}
	atomic.StoreInt32(&open.state, StateOpen)
	open.lastFailure = time.Now()
	err := open.PublishLedgerEvent(context.Background(), ev)
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("open circuit: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	closed := &Client{exchangeName: "fintrack", queueName: "ledger_events"}
	if err := closed.PublishLedgerEvent(ctx, ev); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx: err = %v", err)
	}
}

func TestConsumeWithoutChannel(t *testing.T) {
	c := &Client{queueName: "ledger_events"}
	err := c.ConsumeLedgerEvents(context.Background(), func(context.Context, *LedgerEvent) error { return nil })
	if !errors.Is(err, errNoChannel) {
		t.Fatalf("ConsumeLedgerEvents = %v, want errNoChannel", err)
	}
}

func TestLedgerEventWire(t *testing.T) {
	ev := NewLedgerEvent(core.TypeIncome, 12345, 9, false)
	if time.Since(ev.Timestamp) > time.Second {
		t.Errorf("timestamp %v is not recent", ev.Timestamp)
	}
	if ref := ev.Ref(); ref.Type != core.TypeIncome || ref.ID != 12345 {
		t.Errorf("Ref() = %+v", ref)
	}

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"kind":"income"`, `"id":12345`, `"user_id":9`, `"mirror_written":false`} {
		if !strings.Contains(string(body), field) {
			t.Errorf("body %s lacks %s", body, field)
		}
	}

	back, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON: %v", err)
	}
	if back.Ref() != ev.Ref() || back.UserID != 9 || !back.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("decoded %+v, want %+v", back, ev)
	}
}

func TestLedgerEventRejects(t *testing.T) {
	for name, body := range map[string]string{
		"wrong type":   `{"kind": "expense", "id": "not_a_number", "user_id": 1}`,
		"unknown kind": `{"kind": "transfer", "id": 1, "user_id": 1}`,
		"missing id":   `{"kind": "income", "user_id": 1}`,
		"missing user": `{"kind": "income", "id": 4}`,
		"not json":     `kind=income`,
	} {
		if _, err := LedgerEventFromJSON([]byte(body)); err == nil {
			t.Errorf("%s: accepted %s", name, body)
		}
	}
}
