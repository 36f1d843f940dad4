package portfolio

import (
	"fmt"
	"sort"
)

// Diversification policy. The weights are tunable; the score always lands
// in [0, 100].
const (
	scoreBase = 100

	// Sector concentration thresholds (percent of total value) and their
	// penalties.
	sectorHeavyPct     = 60.0
	sectorHeavyPenalty = 30
	sectorHighPct      = 40.0
	sectorHighPenalty  = 15
	sectorWarmPct      = 30.0
	sectorWarmPenalty  = 5

	// Position-count penalties.
	fewPositions         = 5
	fewPositionsPenalty  = 20
	somePositions        = 10
	somePositionsPenalty = 10

	// Sector-count bonuses.
	broadSectors      = 5
	broadSectorsBonus = 10
	someSectors       = 3
	someSectorsBonus  = 5

	// Asset-class presence bonuses.
	bondsBonus       = 5
	commoditiesBonus = 5

	// Single-position dominance.
	dominancePct     = 40.0
	dominancePenalty = 10
)

// Analysis is the diversification assessment of a valued portfolio.
type Analysis struct {
	Score           int
	Warnings        []string
	Recommendations []string
}

// Analyze scores the diversification of a valuation and collects the
// warnings and recommendations that triggered. Deterministic for a given
// valuation.
func Analyze(v *Valuation) *Analysis {
	a := &Analysis{Score: scoreBase}
	if len(v.Holdings) == 0 {
		a.Score = 0
		return a
	}

	// Iterate sectors in a stable order so warning output is deterministic.
	sectors := make([]string, 0, len(v.Sectors))
	for sector := range v.Sectors {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)

	for _, sector := range sectors {
		pct := v.Sectors[sector]
		switch {
		case pct > sectorHeavyPct:
			a.Score -= sectorHeavyPenalty
			a.Warnings = append(a.Warnings, fmt.Sprintf("❌ %s: %.1f%% - HIGHLY CONCENTRATED!", sector, pct))
			a.Recommendations = append(a.Recommendations, fmt.Sprintf("Reduce %s exposure to below %.0f%%", sector, sectorHeavyPct))
		case pct > sectorHighPct:
			a.Score -= sectorHighPenalty
			a.Warnings = append(a.Warnings, fmt.Sprintf("⚠️ %s: %.1f%% - High concentration", sector, pct))
			a.Recommendations = append(a.Recommendations, fmt.Sprintf("Consider reducing %s exposure", sector))
		case pct > sectorWarmPct:
			a.Score -= sectorWarmPenalty
		}
	}

	numPositions := len(v.Holdings)
	if numPositions < fewPositions {
		a.Score -= fewPositionsPenalty
		a.Warnings = append(a.Warnings, fmt.Sprintf("⚠️ Only %d positions - Low diversification", numPositions))
		a.Recommendations = append(a.Recommendations, "Consider adding more positions (target: 10-15)")
	} else if numPositions < somePositions {
		a.Score -= somePositionsPenalty
	}

	if len(v.Sectors) >= broadSectors {
		a.Score += broadSectorsBonus
	} else if len(v.Sectors) >= someSectors {
		a.Score += someSectorsBonus
	}

	if _, ok := v.Sectors["Bonds"]; ok {
		a.Score += bondsBonus
	} else {
		a.Recommendations = append(a.Recommendations, "Add bonds (TLT, AGG) for stability and lower volatility")
	}
	if _, ok := v.Sectors["Commodities"]; ok {
		a.Score += commoditiesBonus
	} else {
		a.Recommendations = append(a.Recommendations, "Add commodities (GLD) as inflation hedge")
	}

	// Holdings are sorted largest first, so dominance is a check on the head.
	if numPositions > 1 {
		largest := v.Holdings[0]
		if largest.Weight > dominancePct {
			a.Score -= dominancePenalty
			a.Warnings = append(a.Warnings, fmt.Sprintf("⚠️ %s is %.1f%% of portfolio", largest.Symbol, largest.Weight))
			a.Recommendations = append(a.Recommendations, fmt.Sprintf("Consider reducing %s position", largest.Symbol))
		}
	}

	if a.Score < 0 {
		a.Score = 0
	}
	if a.Score > 100 {
		a.Score = 100
	}
	return a
}
