package portfolio

import "strings"

// defaultSectors maps well-known symbols to sectors. Overridable through
// the [sectors] table in the config file; unknown symbols fall back to
// "Other".
var defaultSectors = map[string]string{
	// Technology
	"AAPL": "Technology", "MSFT": "Technology", "GOOGL": "Technology", "GOOG": "Technology",
	"META": "Technology", "NVDA": "Technology", "AMD": "Technology", "INTC": "Technology",
	"ORCL": "Technology", "CRM": "Technology", "ADBE": "Technology", "CSCO": "Technology",
	"AVGO": "Technology", "QCOM": "Technology", "TXN": "Technology", "SHOP": "Technology",

	// Automotive / EV
	"TSLA": "Automotive", "F": "Automotive", "GM": "Automotive", "RIVN": "Automotive",
	"LCID": "Automotive", "NIO": "Automotive",

	// Finance
	"JPM": "Finance", "BAC": "Finance", "WFC": "Finance", "C": "Finance",
	"GS": "Finance", "MS": "Finance", "V": "Finance", "MA": "Finance",
	"PYPL": "Finance", "SQ": "Finance", "BLK": "Finance",

	// Healthcare
	"JNJ": "Healthcare", "UNH": "Healthcare", "PFE": "Healthcare", "ABBV": "Healthcare",
	"TMO": "Healthcare", "ABT": "Healthcare", "CVS": "Healthcare", "MRK": "Healthcare",
	"LLY": "Healthcare", "AMGN": "Healthcare",

	// Consumer
	"AMZN": "Consumer", "WMT": "Consumer", "HD": "Consumer", "NKE": "Consumer",
	"MCD": "Consumer", "SBUX": "Consumer", "TGT": "Consumer", "COST": "Consumer",
	"LOW": "Consumer", "DIS": "Consumer", "NFLX": "Consumer",

	// Energy
	"XOM": "Energy", "CVX": "Energy", "COP": "Energy", "SLB": "Energy",
	"EOG": "Energy", "PSX": "Energy", "MPC": "Energy",

	// Commodities
	"GLD": "Commodities", "SLV": "Commodities", "GDX": "Commodities",
	"USO": "Commodities", "UNG": "Commodities", "DBA": "Commodities",

	// Bonds
	"TLT": "Bonds", "SHY": "Bonds", "AGG": "Bonds", "BND": "Bonds",
	"LQD": "Bonds", "HYG": "Bonds", "GOVT": "Bonds",

	// ASX
	"BHP.AX": "Mining", "RIO.AX": "Mining", "FMG.AX": "Mining",
	"CBA.AX": "Finance", "WBC.AX": "Finance", "NAB.AX": "Finance", "ANZ.AX": "Finance",
	"CSL.AX": "Healthcare", "WES.AX": "Consumer", "WOW.AX": "Consumer",
	"TLS.AX": "Telecom", "WDS.AX": "Energy",
}

// SectorLookup resolves symbols to sectors, consulting configured
// overrides before the built-in table.
type SectorLookup struct {
	overrides map[string]string
}

// NewSectorLookup creates a lookup with the given overrides. Keys are
// matched case-insensitively.
func NewSectorLookup(overrides map[string]string) *SectorLookup {
	l := &SectorLookup{overrides: make(map[string]string, len(overrides))}
	for symbol, sector := range overrides {
		l.overrides[strings.ToUpper(symbol)] = sector
	}
	return l
}

// Sector returns the sector for symbol, or "Other" when unknown.
func (l *SectorLookup) Sector(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if sector, ok := l.overrides[symbol]; ok {
		return sector
	}
	if sector, ok := defaultSectors[symbol]; ok {
		return sector
	}
	return "Other"
}
