package coins

import (
	"testing"

	"github.com/hoffmang9/greenfloor/internal/chia"
)

func coin(amount uint64) chia.Coin {
	return chia.Coin{Amount: amount}
}

func TestSelectCoinsSmallestFirstGreedy(t *testing.T) {
	available := []chia.Coin{coin(100), coin(1), coin(10), coin(5)}
	selected := SelectCoins(available, 12)
	if len(selected) != 3 {
		t.Fatalf("expected 3 coins selected (1+5+10=16>=12), got %d: %+v", len(selected), selected)
	}
	var total uint64
	for _, c := range selected {
		total += c.Amount
	}
	if total < 12 {
		t.Fatalf("selected total %d below target 12", total)
	}
	if selected[0].Amount != 1 || selected[1].Amount != 5 || selected[2].Amount != 10 {
		t.Fatalf("expected smallest-first order [1,5,10], got %+v", selected)
	}
}

func TestSelectCoinsInsufficientReturnsNil(t *testing.T) {
	available := []chia.Coin{coin(1), coin(2)}
	if got := SelectCoins(available, 100); got != nil {
		t.Fatalf("expected nil when available total is below target, got %+v", got)
	}
}

func TestSelectCoinsExactTarget(t *testing.T) {
	available := []chia.Coin{coin(4), coin(6)}
	selected := SelectCoins(available, 10)
	if len(selected) != 2 {
		t.Fatalf("expected both coins selected to exactly meet target, got %+v", selected)
	}
}

func catCoin(amount uint64) chia.CatCoin {
	return chia.CatCoin{Coin: chia.Coin{Amount: amount}}
}

func TestSelectCATCoinsAscendingAccumulate(t *testing.T) {
	available := []chia.CatCoin{catCoin(50), catCoin(5), catCoin(20)}
	selected := SelectCATCoins(available, 22)
	if len(selected) != 2 {
		t.Fatalf("expected 2 cat coins (5+20=25>=22), got %d: %+v", len(selected), selected)
	}
	if selected[0].Coin.Amount != 5 || selected[1].Coin.Amount != 20 {
		t.Fatalf("expected ascending order [5,20], got %+v", selected)
	}
}

func TestSelectCATCoinsInsufficientReturnsNil(t *testing.T) {
	available := []chia.CatCoin{catCoin(1)}
	if got := SelectCATCoins(available, 1000); got != nil {
		t.Fatalf("expected nil when cat total is below target, got %+v", got)
	}
}
