package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdviseFor_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		want   string
	}{
		{name: "low", inputs: []string{"Low", "low", "LOW", "lOw"}, want: LowRiskAdvice},
		{name: "medium", inputs: []string{"Medium", "medium", "MEDIUM"}, want: MediumRiskAdvice},
		{name: "high", inputs: []string{"High", "high", "HIGH"}, want: HighRiskAdvice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, in := range tt.inputs {
				assert.Equal(t, tt.want, AdviseFor(in), "input %q", in)
			}
		})
	}
}

func TestAdviseFor_Fallback(t *testing.T) {
	for _, in := range []string{"", "unknown", "Error", " low", "high risk", "moderate"} {
		assert.Equal(t, FallbackAdvice, AdviseFor(in), "input %q", in)
	}
}

func TestAdviseFor_Copy(t *testing.T) {
	assert.Equal(t, "No advice available. Please review patient details and try again.", AdviseFor(""))
	assert.Contains(t, AdviseFor("low"), "routine antenatal monitoring")
	assert.Contains(t, AdviseFor("medium"), "more frequent antenatal visits")
	assert.Contains(t, AdviseFor("high"), "Immediate referral to a higher-level facility")
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierHigh, TierOf("HIGH"))
	assert.Equal(t, TierMedium, TierOf("Medium"))
	assert.Equal(t, TierLow, TierOf("low"))
	assert.Equal(t, TierUnknown, TierOf(""))
	assert.Equal(t, TierUnknown, TierOf("Error"))
}
