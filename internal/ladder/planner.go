// Package ladder implements the ladder planner & fee-budget partitioner
// (spec §4.10), ported from
// original_source/greenfloor/core/coin_ops.py's plan_coin_ops and
// core/fee_budget.py's partition_plans_by_budget.
package ladder

import "sort"

// BucketSpec mirrors spec §3's BucketSpec entity.
type BucketSpec struct {
	SizeBaseUnits            int64
	TargetCount              int
	SplitBufferCount         int
	CombineWhenExcessFactor  float64
	CurrentCount             int
}

// CoinOpPlan mirrors spec §3's Plans entity.
type CoinOpPlan struct {
	OpType         string // "split" | "combine"
	SizeBaseUnits  int64
	OpCount        int
	Reason         string
}

const hugeFeeBudget = int64(1) << 60

// PlanCoinOps derives split/combine plans from the current bucket counts
// (spec §4.10 algorithm):
//
//  1. Compute deficit_i = target_i + split_buffer_i - current_i for buckets
//     with positive target; sort by -deficit_i/target_i (largest relative
//     shortfall first), tie-break ascending size.
//  2. Emit split plans in that order, consuming remaining_ops/remaining_fee.
//  3. If any deficit existed, do not emit combine plans this cycle.
//  4. Otherwise compute excess_i and emit combine plans ascending by size.
func PlanCoinOps(buckets []BucketSpec, maxOperationsPerRun int, maxFeeBudgetMojos int64, splitFeeMojos, combineFeeMojos int64) []CoinOpPlan {
	var plans []CoinOpPlan
	remainingOps := maxOperationsPerRun
	remainingFee := maxFeeBudgetMojos
	if remainingFee <= 0 {
		remainingFee = hugeFeeBudget
	}

	type deficitEntry struct {
		ratio   float64
		bucket  BucketSpec
		deficit int
	}
	var deficits []deficitEntry
	for _, b := range buckets {
		threshold := b.TargetCount + b.SplitBufferCount
		deficit := threshold - b.CurrentCount
		if deficit > 0 && b.TargetCount > 0 {
			deficits = append(deficits, deficitEntry{
				ratio:   float64(deficit) / float64(b.TargetCount),
				bucket:  b,
				deficit: deficit,
			})
		}
	}
	sort.SliceStable(deficits, func(i, j int) bool {
		if deficits[i].ratio != deficits[j].ratio {
			return deficits[i].ratio > deficits[j].ratio // largest relative shortfall first
		}
		return deficits[i].bucket.SizeBaseUnits < deficits[j].bucket.SizeBaseUnits
	})

	for _, d := range deficits {
		if remainingOps <= 0 {
			break
		}
		if splitFeeMojos > remainingFee {
			break
		}
		opCount := d.deficit
		if remainingOps < opCount {
			opCount = remainingOps
		}
		if opCount <= 0 {
			continue
		}
		plans = append(plans, CoinOpPlan{
			OpType:        "split",
			SizeBaseUnits: d.bucket.SizeBaseUnits,
			OpCount:       opCount,
			Reason:        "low_watermark_buffer_deficit",
		})
		remainingOps -= opCount
		remainingFee -= splitFeeMojos
	}

	if len(deficits) > 0 {
		return plans
	}

	type excessEntry struct {
		bucket BucketSpec
		excess int
	}
	var excesses []excessEntry
	for _, b := range buckets {
		threshold := int(float64(b.TargetCount) * b.CombineWhenExcessFactor)
		excess := b.CurrentCount - threshold
		if excess > 0 {
			excesses = append(excesses, excessEntry{bucket: b, excess: excess})
		}
	}
	sort.SliceStable(excesses, func(i, j int) bool {
		return excesses[i].bucket.SizeBaseUnits < excesses[j].bucket.SizeBaseUnits
	})

	for _, e := range excesses {
		if remainingOps <= 0 {
			break
		}
		if combineFeeMojos > remainingFee {
			break
		}
		opCount := e.excess
		if remainingOps < opCount {
			opCount = remainingOps
		}
		if opCount <= 0 {
			continue
		}
		plans = append(plans, CoinOpPlan{
			OpType:        "combine",
			SizeBaseUnits: e.bucket.SizeBaseUnits,
			OpCount:       opCount,
			Reason:        "excess_only_policy",
		})
		remainingOps -= opCount
		remainingFee -= combineFeeMojos
	}

	return plans
}

// ComputeBucketCountsFromCoins is the exact-match bucket counter from
// spec §3/§4.11 step e, ported from core/inventory.py.
func ComputeBucketCountsFromCoins(coinAmounts []int64, ladderSizes []int64) map[int64]int {
	ladder := make(map[int64]bool, len(ladderSizes))
	counts := make(map[int64]int, len(ladderSizes))
	for _, s := range ladderSizes {
		ladder[s] = true
		counts[s] = 0
	}
	for _, a := range coinAmounts {
		if ladder[a] {
			counts[a]++
		}
	}
	return counts
}
