package valuation

import "github.com/ternarybob/bondval/internal/models"

const (
	// RiskRewardMateriality is the minimum points of reward or risk that
	// count as a real difference between scenario runs.
	RiskRewardMateriality = 0.1
	// RiskRewardCap bounds the ratio when risk is tiny but real.
	RiskRewardCap = 10.0
)

// Assessment bands for the reward/risk ratio.
const (
	RiskRewardExcellent = 2.0
	RiskRewardGood      = 1.5
	RiskRewardNeutral   = 1.0
)

// CompareRiskReward combines optimal-exit annual returns from base,
// optimistic and conservative scenario runs into a single reward/risk
// ratio. A short-horizon bond with no real variance across scenarios is
// classified neutral, not poor. Reward and risk both immaterial, including
// both negative, falls back to 0/neutral.
func CompareRiskReward(base, optimistic, conservative float64) models.RiskReward {
	reward := optimistic - base
	risk := base - conservative

	rr := models.RiskReward{Reward: reward, Risk: risk}

	switch {
	case reward < RiskRewardMateriality && risk < RiskRewardMateriality:
		rr.Ratio = 0
		rr.Assessment = "neutral"
		return rr
	case reward >= RiskRewardMateriality && risk < RiskRewardMateriality:
		// Upside with no real downside
		rr.Ratio = RiskRewardCap
	case reward < RiskRewardMateriality:
		// Real risk without reward: keep the raw (typically negative) ratio
		rr.Ratio = reward / risk
	default:
		rr.Ratio = reward / risk
		if rr.Ratio > RiskRewardCap {
			rr.Ratio = RiskRewardCap
		}
	}

	switch {
	case rr.Ratio >= RiskRewardExcellent:
		rr.Assessment = "excellent"
	case rr.Ratio >= RiskRewardGood:
		rr.Assessment = "good"
	case rr.Ratio >= RiskRewardNeutral:
		rr.Assessment = "neutral"
	default:
		rr.Assessment = "poor"
	}
	return rr
}
