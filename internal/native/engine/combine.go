package engine

import "pdpnode/internal/native"

func knownCombining(alg string) bool {
	switch alg {
	case native.CombineDenyOverrides, native.CombinePermitOverrides, native.CombineFirstApplicable,
		native.CombinePermitUnlessDeny, native.CombineDenyUnlessPermit:
		return true
	}
	return false
}

// combine folds decisions with alg. The returned index is the single
// decisive element for first-applicable and -1 otherwise.
func combine(alg string, ds []native.Decision) (native.Decision, int) {
	switch alg {
	case native.CombinePermitOverrides:
		return overrides(ds, native.Permit), -1
	case native.CombineFirstApplicable:
		for i, d := range ds {
			if d != native.NotApplicable {
				return d, i
			}
		}
		return native.NotApplicable, -1
	case native.CombinePermitUnlessDeny:
		for _, d := range ds {
			if d == native.Deny {
				return native.Deny, -1
			}
		}
		return native.Permit, -1
	case native.CombineDenyUnlessPermit:
		for _, d := range ds {
			if d == native.Permit {
				return native.Permit, -1
			}
		}
		return native.Deny, -1
	default:
		return overrides(ds, native.Deny), -1
	}
}

// overrides implements deny-overrides (winner Deny) and permit-overrides
// (winner Permit) including the extended indeterminate values.
func overrides(ds []native.Decision, winner native.Decision) native.Decision {
	loser, indWinner, indLoser := native.Permit, native.IndeterminateD, native.IndeterminateP
	if winner == native.Permit {
		loser, indWinner, indLoser = native.Deny, native.IndeterminateP, native.IndeterminateD
	}

	var anyLoser, anyIndWinner, anyIndLoser, anyIndBoth bool
	for _, d := range ds {
		switch d {
		case winner:
			return winner
		case loser:
			anyLoser = true
		case indWinner:
			anyIndWinner = true
		case indLoser:
			anyIndLoser = true
		case native.Indeterminate, native.IndeterminateDP:
			anyIndBoth = true
		}
	}

	switch {
	case anyIndBoth:
		return native.IndeterminateDP
	case anyIndWinner && (anyIndLoser || anyLoser):
		return native.IndeterminateDP
	case anyIndWinner:
		return indWinner
	case anyLoser:
		return loser
	case anyIndLoser:
		return indLoser
	}
	return native.NotApplicable
}
