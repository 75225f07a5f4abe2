package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSlack_OK(t *testing.T) {
	var got slackPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	err := s.Notify(context.Background(), Message{Title: "Store DOWN", Text: "write_failed"})
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if got.Text != "*Store DOWN*" {
		t.Fatalf("title not as expected: %q", got.Text)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Color != "danger" || got.Attachments[0].Text != "write_failed" {
		t.Fatalf("attachment not as expected: %+v", got.Attachments)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if err := s.Notify(context.Background(), Message{Title: "X", Text: "Y"}); err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestNewSlack_EmptyWebhook(t *testing.T) {
	if s := NewSlack(""); s != nil {
		t.Fatalf("expected nil for empty webhook")
	}
}

type failing struct{ err error }

func (f failing) Notify(context.Context, Message) error { return f.err }

func TestMulti_CollectsAllErrors(t *testing.T) {
	e1, e2 := errors.New("one"), errors.New("two")
	err := Multi{failing{e1}, nil, failing{nil}, failing{e2}}.Notify(context.Background(), Message{})
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("want both errors, got %v", err)
	}
	if err := (Multi{failing{nil}}).Notify(context.Background(), Message{}); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}
