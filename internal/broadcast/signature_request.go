package broadcast

import (
	"context"
	"time"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

// SignatureRequest is the polled shape from cloud_wallet.py's
// get_signature_request: a signature_request_id carries a status that
// starts at "UNSIGNED" and eventually becomes something else (signed,
// rejected, expired — the vault decides the vocabulary).
type SignatureRequest struct {
	ID     string
	Status string
}

const unsignedStatus = "UNSIGNED"

// SignatureRequestClient is the minimal vault surface the poller
// needs, so it is testable without a live GraphQL-backed custody
// vault (cloud_wallet.py's CloudWalletAdapter.get_signature_request).
type SignatureRequestClient interface {
	GetSignatureRequest(ctx context.Context, signatureRequestID string) (SignatureRequest, error)
}

// SignatureRequestPoller polls a pending signature request until its
// status leaves UNSIGNED, per spec §4.7's
// poll_signature_request_until_not_unsigned.
type SignatureRequestPoller struct {
	Client       SignatureRequestClient
	Sleep        func(ctx context.Context, d time.Duration) error
	Now          func() time.Time
	PollInterval time.Duration
}

func (p *SignatureRequestPoller) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *SignatureRequestPoller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *SignatureRequestPoller) pollInterval() time.Duration {
	if p.PollInterval > 0 {
		return p.PollInterval
	}
	return 2 * time.Second
}

// PollUntilNotUnsigned polls until the signature request's status
// leaves UNSIGNED, emitting signature_wait_warning at each
// warningInterval and escalating to signature_wait_escalation from the
// second warning onward. Transient fetch errors are swallowed and
// retried; only the hard timeout and a cancelled context are returned
// as errors.
func (p *SignatureRequestPoller) PollUntilNotUnsigned(
	ctx context.Context,
	signatureRequestID string,
	timeout time.Duration,
	warningInterval time.Duration,
) (SignatureRequest, []Event, error) {
	var events []Event
	start := p.now()
	warningsFired := 0

	for {
		if err := ctx.Err(); err != nil {
			return SignatureRequest{}, events, err
		}
		request, err := p.Client.GetSignatureRequest(ctx, signatureRequestID)
		if err == nil && request.Status != "" && request.Status != unsignedStatus {
			return request, events, nil
		}

		elapsed := p.now().Sub(start)
		if warningInterval > 0 {
			dueWarnings := int(elapsed / warningInterval)
			for warningsFired < dueWarnings {
				warningsFired++
				evtType := "signature_wait_warning"
				if warningsFired >= 2 {
					evtType = "signature_wait_escalation"
				}
				events = append(events, Event{Type: evtType, CoinName: signatureRequestID})
			}
		}
		if timeout > 0 && elapsed >= timeout {
			return SignatureRequest{}, events, chia.ErrSignatureRequestTimeout
		}
		if err := p.sleep(ctx, p.pollInterval()); err != nil {
			return SignatureRequest{}, events, err
		}
	}
}
