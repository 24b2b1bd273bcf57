package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/hoffmang9/greenfloor/internal/strategy"
)

// OfferBuildRequest carries everything _build_offer_for_action passes
// to the configured offer-builder backend.
type OfferBuildRequest struct {
	MarketID        string
	BaseAsset       string
	BaseSymbol      string
	QuoteAsset      string
	QuoteAssetType  string
	ReceiveAddress  string
	SizeBaseUnits   int64
	Pair            string
	Reason          string
	XCHPriceUSD     *float64
	TargetSpreadBPS *int
	ExpiryUnit      string
	ExpiryValue     int
}

// OfferBuildResult mirrors _build_offer_for_action's {status, reason,
// offer} response.
type OfferBuildResult struct {
	Status string
	Reason string
	Offer  string
}

// OfferBuilder constructs the CHIP-0002 offer file for one planned
// action. Building an offer requires walking the chain for spendable
// coins and solving puzzles — work this codebase keeps behind the
// chia.PuzzleRunner boundary — so, like signing.ExternalCommandSigner,
// the production implementation shells out to an operator-configured
// backend rather than reimplementing offer construction in process.
type OfferBuilder interface {
	BuildOffer(ctx context.Context, req OfferBuildRequest) (OfferBuildResult, error)
}

// ActionToOfferBuildRequest adapts a planned strategy action into an
// OfferBuildRequest, filling in the market fields _build_offer_for_action
// reads off its market argument.
func ActionToOfferBuildRequest(marketID, baseAsset, baseSymbol, quoteAsset, quoteAssetType, receiveAddress string, action strategy.PlannedAction, xchPriceUSD *float64) OfferBuildRequest {
	return OfferBuildRequest{
		MarketID:        marketID,
		BaseAsset:       baseAsset,
		BaseSymbol:      baseSymbol,
		QuoteAsset:      quoteAsset,
		QuoteAssetType:  quoteAssetType,
		ReceiveAddress:  receiveAddress,
		SizeBaseUnits:   action.Size,
		Pair:            action.Pair,
		Reason:          action.Reason,
		XCHPriceUSD:     xchPriceUSD,
		TargetSpreadBPS: action.TargetSpreadBPS,
		ExpiryUnit:      action.ExpiryUnit,
		ExpiryValue:     action.ExpiryValue,
	}
}

// ExternalCommandOfferBuilder spawns a configured subprocess and pipes
// the build request as JSON over stdin, ported from
// _build_offer_for_action's subprocess.run flow (GREENFLOOR_OFFER_BUILDER_CMD).
type ExternalCommandOfferBuilder struct {
	Command string
	Timeout time.Duration
}

type offerBuilderResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Offer  string `json:"offer"`
}

func (b *ExternalCommandOfferBuilder) BuildOffer(ctx context.Context, req OfferBuildRequest) (OfferBuildResult, error) {
	if strings.TrimSpace(b.Command) == "" {
		return OfferBuildResult{Status: "skipped", Reason: "missing_offer_builder_cmd"}, nil
	}
	input, err := json.Marshal(req)
	if err != nil {
		return OfferBuildResult{Status: "skipped", Reason: "offer_builder_request_encode_error"}, nil
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := splitShellWords(b.Command)
	if len(args) == 0 {
		return OfferBuildResult{Status: "skipped", Reason: "missing_offer_builder_cmd"}, nil
	}
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = "unknown_error"
		}
		return OfferBuildResult{Status: "skipped", Reason: "offer_builder_failed:" + msg}, nil
	}

	var resp offerBuilderResponse
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return OfferBuildResult{Status: "skipped", Reason: "offer_builder_invalid_json"}, nil
	}
	offer := strings.TrimSpace(resp.Offer)
	if offer == "" {
		return OfferBuildResult{Status: "skipped", Reason: "offer_builder_missing_offer"}, nil
	}
	status := resp.Status
	if status == "" {
		status = "executed"
	}
	reason := resp.Reason
	if reason == "" {
		reason = "offer_builder_success"
	}
	return OfferBuildResult{Status: status, Reason: reason, Offer: offer}, nil
}

// splitShellWords is the same minimal POSIX-ish word splitter
// signing.ExternalCommandSigner uses for its *_CMD config strings;
// duplicated rather than exported across the package boundary since
// each caller's command string comes from a different config knob.
func splitShellWords(s string) []string {
	var words []string
	var current strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t':
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}
