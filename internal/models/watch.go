package models

import "time"

// Watch is a user-owned price threshold on a symbol. Lower <= Upper is
// enforced at creation time; the alert timestamps are owned by the
// threshold monitor and persist until the next breach of the same kind.
type Watch struct {
	Symbol        string
	Lower         float64
	Upper         float64
	LastAlertLow  *time.Time
	LastAlertHigh *time.Time
	CreatedAt     time.Time
}

// Breach describes a threshold crossing found during evaluation.
type Breach struct {
	Symbol string
	Kind   BreachKind
	Price  float64
	Bound  float64
}
