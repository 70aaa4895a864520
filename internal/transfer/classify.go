package transfer

import "strings"

// benignReceiptDefects are messages emitted by a defective text-decoding
// utility bundled with some bundler client stacks: it routes raw 32-byte
// hashes through a UTF-8 decoder during receipt post-processing and rejects
// them as malformed text. The defect fires only after the operation has been
// accepted, so it says nothing about on-chain state. Matching is by
// substring because upstream wraps the message differently across versions.
var benignReceiptDefects = []string{
	"invalid codepoint",
	"malformed utf-8",
	"unpaired surrogate",
	"invalid byte sequence",
}

var fundingSignatures = []string{
	"insufficient funds",
	"insufficient balance",
	"balance too low",
	"didn't pay prefund",
}

var sponsorshipSignatures = []string{
	"billing plan",
	"monthly limit",
	"sponsorship quota",
	"sponsorship limit exceeded",
}

// Fixed guidance strings. Outcome messages must be deterministic for a given
// classified error, so these never interpolate request data.
const (
	// FundingGuidance is user-facing: the account cannot cover the transfer.
	FundingGuidance = "The account balance cannot cover this transfer. Fund the account and try again."
	// SponsorshipGuidance is operator-facing: the paymaster declined to
	// sponsor, not the user's fault.
	SponsorshipGuidance = "Gas sponsorship was declined: the sponsorship quota for the current billing period is exhausted. Review the paymaster billing plan."
	// VerifyCaveat accompanies assumed-settled outcomes.
	VerifyCaveat = "Receipt handling was interrupted by a known client defect that occurs after submission. The transfer most likely settled; verify it independently before retrying."
)

// IsBenignReceiptDefect reports whether a receipt-wait failure matches the
// known decoder defect and is eligible for the optimistic downgrade.
func IsBenignReceiptDefect(err error) bool {
	if err == nil {
		return false
	}
	return matchesAny(err.Error(), benignReceiptDefects)
}

// GuidanceFor maps a hard failure message to a guidance string, or returns
// an empty string when the message matches no recognized class.
func GuidanceFor(message string) string {
	if matchesAny(message, fundingSignatures) {
		return FundingGuidance
	}
	if matchesAny(message, sponsorshipSignatures) {
		return SponsorshipGuidance
	}
	return ""
}

func matchesAny(message string, signatures []string) bool {
	lower := strings.ToLower(message)
	for _, sig := range signatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
