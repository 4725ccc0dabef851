package parse

// scoreConfidence produces the 0-100 reliability signal attached to every
// parse. Retried parses start lower, and results missing statement-level
// anchors or per-transaction category hints are penalized further.
func scoreConfidence(result *Result, attempts int) float64 {
	score := 100.0

	// Each retry past the first attempt cost us one round of validation
	// feedback, which usually means the model struggled with this layout.
	if attempts > 1 {
		score -= 15 * float64(attempts-1)
	}

	if result.Summary.StatementDate.IsZero() {
		score -= 10
	}
	if result.Summary.TotalDue.IsZero() {
		score -= 5
	}
	if result.CardDetails.MaskedNumber == "" {
		score -= 5
	}

	if n := len(result.Transactions); n > 0 {
		hinted := 0
		for _, txn := range result.Transactions {
			if txn.VendorCategory != "" {
				hinted++
			}
		}
		fraction := float64(hinted) / float64(n)
		// Up to 15 points off when the model returned no category hints.
		score -= 15 * (1 - fraction)
	}

	if score < 0 {
		return 0
	}
	return score
}
