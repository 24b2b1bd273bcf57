package ladder

// ProjectedCoinOpsFeeMojos sums the projected fee across a plan list.
func ProjectedCoinOpsFeeMojos(plans []CoinOpPlan, splitFeeMojos, combineFeeMojos int64) int64 {
	var total int64
	for _, p := range plans {
		perOp := splitFeeMojos
		if p.OpType != "split" {
			perOp = combineFeeMojos
		}
		if perOp < 0 {
			perOp = 0
		}
		opCount := p.OpCount
		if opCount < 0 {
			opCount = 0
		}
		total += int64(opCount) * perOp
	}
	return total
}

// FeeBudgetAllowsExecution reports whether spentToday+projected stays
// within maxDailyFeeBudgetMojos; a non-positive ceiling means unlimited.
func FeeBudgetAllowsExecution(maxDailyFeeBudgetMojos, spentTodayMojos, projectedMojos int64) bool {
	if maxDailyFeeBudgetMojos <= 0 {
		return true
	}
	return spentTodayMojos+projectedMojos <= maxDailyFeeBudgetMojos
}

// PartitionPlansByBudget splits plans into (allowed, overflow) against a
// per-day spend ceiling (spec §4.10):
//   - ceiling <= 0: all plans allowed.
//   - otherwise walk plans in order; full op_count if it fits, partial
//     split if only a prefix fits (overflow reason
//     "fee_budget_partial_overflow"), remainder to overflow once budget is
//     exhausted.
func PartitionPlansByBudget(plans []CoinOpPlan, splitFeeMojos, combineFeeMojos, spentTodayMojos, maxDailyFeeBudgetMojos int64) (allowed, overflow []CoinOpPlan) {
	if maxDailyFeeBudgetMojos <= 0 {
		return append([]CoinOpPlan(nil), plans...), nil
	}

	remaining := maxDailyFeeBudgetMojos - spentTodayMojos
	if remaining < 0 {
		remaining = 0
	}

	for _, plan := range plans {
		perOp := splitFeeMojos
		if plan.OpType != "split" {
			perOp = combineFeeMojos
		}
		if perOp < 0 {
			perOp = 0
		}
		if plan.OpCount <= 0 {
			continue
		}
		if perOp == 0 {
			allowed = append(allowed, plan)
			continue
		}
		affordableOps := remaining / perOp
		if affordableOps <= 0 {
			overflow = append(overflow, plan)
			continue
		}
		if int(affordableOps) >= plan.OpCount {
			allowed = append(allowed, plan)
			remaining -= int64(plan.OpCount) * perOp
			continue
		}
		allowed = append(allowed, CoinOpPlan{
			OpType:        plan.OpType,
			SizeBaseUnits: plan.SizeBaseUnits,
			OpCount:       int(affordableOps),
			Reason:        plan.Reason,
		})
		overflow = append(overflow, CoinOpPlan{
			OpType:        plan.OpType,
			SizeBaseUnits: plan.SizeBaseUnits,
			OpCount:       plan.OpCount - int(affordableOps),
			Reason:        "fee_budget_partial_overflow",
		})
		remaining = 0
	}
	return allowed, overflow
}
