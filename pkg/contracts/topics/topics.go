package topics

const (
	// Feed ao vivo
	MatchSnapshots = "match_snapshots"
	MatchResults   = "match_results"

	// Pricing e apostas
	PricingSignals = "pricing_signals"
	WagerPlaced    = "wager_placed"
	WagerSettled   = "wager_settled"

	// DLQ
	WagerSettledDLQ = "wager_settled_dlq"
)
