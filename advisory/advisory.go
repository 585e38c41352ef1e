// Package advisory maps a predicted PPH risk tier to clinical guidance.
package advisory

import "strings"

// Tier is a normalized risk tier.
type Tier string

const (
	TierLow     Tier = "low"
	TierMedium  Tier = "medium"
	TierHigh    Tier = "high"
	TierUnknown Tier = "unknown"
)

// Guidance copy shown to clinicians. Keep verbatim.
const (
	LowRiskAdvice    = "🟢 Low Risk: Patient presents a low risk of complications. Continue with routine antenatal monitoring and standard care protocols. No immediate intervention is required beyond regular follow-up."
	MediumRiskAdvice = "🟠 Medium Risk: Patient has a moderate risk for complications. Recommend closer observation and schedule more frequent antenatal visits. Consider basic investigations and ensure readiness for timely referral if condition worsens."
	HighRiskAdvice   = "⚠️ High Risk: Patient is at a high risk of complications. Immediate referral to a higher-level facility is advised. Prepare stabilization measures if necessary and ensure prompt transfer for specialized obstetric care."
	FallbackAdvice   = "No advice available. Please review patient details and try again."
)

// TierOf lower-cases riskLevel and matches it exactly; anything else,
// including the empty string, is TierUnknown.
func TierOf(riskLevel string) Tier {
	switch Tier(strings.ToLower(riskLevel)) {
	case TierLow:
		return TierLow
	case TierMedium:
		return TierMedium
	case TierHigh:
		return TierHigh
	}
	return TierUnknown
}

// AdviseFor returns the guidance text for a risk label as returned by the
// prediction service. It never fails.
func AdviseFor(riskLevel string) string {
	switch TierOf(riskLevel) {
	case TierLow:
		return LowRiskAdvice
	case TierMedium:
		return MediumRiskAdvice
	case TierHigh:
		return HighRiskAdvice
	}
	return FallbackAdvice
}
