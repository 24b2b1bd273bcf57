// Package chia holds the domain primitives shared across the coin
// discovery, signing, and broadcast packages: coin identity, AGG_SIG
// message domains, and the tagged-string error vocabulary from spec §7.
package chia

import "fmt"

// Tag builds a tagged-string error of the form "<kind>:<detail>", the
// vocabulary every component surfaces errors in (missing_*, invalid_*,
// http_error:<code>:<snippet>, ...). Wrapping preserves the cause for
// errors.Is/errors.As while keeping the tag as the message prefix.
func Tag(kind string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s", kind)
	}
	return fmt.Errorf("%s:%w", kind, cause)
}

// Tagf is Tag with a formatted detail string instead of a wrapped error.
func Tagf(kind, format string, args ...any) error {
	return fmt.Errorf("%s:%s", kind, fmt.Sprintf(format, args...))
}

var (
	ErrKeySecretsUnavailable           = fmt.Errorf("key_secrets_unavailable")
	ErrDerivationScanFailedForCoin     = fmt.Errorf("derivation_scan_failed_for_selected_coin")
	ErrMissingPrivateKeyForAggSig      = fmt.Errorf("missing_private_key_for_agg_sig_target")
	ErrInvalidSpendBundleHex           = fmt.Errorf("invalid_spend_bundle_hex")
	ErrSignatureRequestTimeout         = fmt.Errorf("signature_request_timeout")
	ErrNoUnspentCoins                  = fmt.Errorf("no_unspent_coins")
	ErrInsufficientCoins               = fmt.Errorf("insufficient_coins")
	ErrMempoolWaitTimeout              = fmt.Errorf("mempool_wait_timeout")
	ErrConfirmationWaitTimeout         = fmt.Errorf("confirmation_wait_timeout")
	ErrReorgWatchTimeout               = fmt.Errorf("reorg_watch_timeout")
)
