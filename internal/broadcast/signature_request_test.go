package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSignatureRequestClient struct {
	callsBeforeSigned int
	calls             int
	finalStatus       string
	transientErr      error
}

func (f *fakeSignatureRequestClient) GetSignatureRequest(ctx context.Context, id string) (SignatureRequest, error) {
	f.calls++
	if f.transientErr != nil && f.calls == 1 {
		return SignatureRequest{}, f.transientErr
	}
	if f.calls <= f.callsBeforeSigned {
		return SignatureRequest{ID: id, Status: unsignedStatus}, nil
	}
	return SignatureRequest{ID: id, Status: f.finalStatus}, nil
}

func TestPollUntilNotUnsignedSucceeds(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	client := &fakeSignatureRequestClient{callsBeforeSigned: 2, finalStatus: "SIGNED"}
	p := &SignatureRequestPoller{Client: client, Sleep: clock.Sleep, Now: clock.Now, PollInterval: time.Second}

	req, _, err := p.PollUntilNotUnsigned(context.Background(), "sig-1", time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != "SIGNED" {
		t.Fatalf("expected SIGNED, got %+v", req)
	}
}

func TestPollUntilNotUnsignedRetriesTransientErrors(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	client := &fakeSignatureRequestClient{callsBeforeSigned: 1, finalStatus: "SIGNED", transientErr: errors.New("network blip")}
	p := &SignatureRequestPoller{Client: client, Sleep: clock.Sleep, Now: clock.Now, PollInterval: time.Second}

	req, _, err := p.PollUntilNotUnsigned(context.Background(), "sig-1", time.Hour, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != "SIGNED" {
		t.Fatalf("expected SIGNED after retrying the transient error, got %+v", req)
	}
}

func TestPollUntilNotUnsignedTimesOut(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	client := &fakeSignatureRequestClient{callsBeforeSigned: 1000, finalStatus: "SIGNED"}
	p := &SignatureRequestPoller{Client: client, Sleep: clock.Sleep, Now: clock.Now, PollInterval: time.Second}

	_, _, err := p.PollUntilNotUnsigned(context.Background(), "sig-1", 10*time.Second, 3*time.Second)
	if err == nil {
		t.Fatalf("expected signature_request_timeout")
	}
}

func TestPollUntilNotUnsignedEscalates(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	client := &fakeSignatureRequestClient{callsBeforeSigned: 1000, finalStatus: "SIGNED"}
	p := &SignatureRequestPoller{Client: client, Sleep: clock.Sleep, Now: clock.Now, PollInterval: time.Second}

	_, events, err := p.PollUntilNotUnsigned(context.Background(), "sig-1", 10*time.Second, 2*time.Second)
	if err == nil {
		t.Fatalf("expected timeout")
	}
	var warnings, escalations int
	for _, e := range events {
		switch e.Type {
		case "signature_wait_warning":
			warnings++
		case "signature_wait_escalation":
			escalations++
		}
	}
	if warnings == 0 || escalations == 0 {
		t.Fatalf("expected at least one warning and one escalation, got %+v", events)
	}
}
