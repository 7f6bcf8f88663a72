package chessmj

import (
	"fmt"
	"testing"
)

func tiles(kinds ...TileKind) []Tile {
	out := make([]Tile, 0, len(kinds))
	for i, k := range kinds {
		out = append(out, Tile{Kind: k, ID: fmt.Sprintf("t%d", i)})
	}
	return out
}

func mustCounts(t *testing.T, kinds ...TileKind) Hand14 {
	t.Helper()
	h, ok := CountsFromTiles(tiles(kinds...))
	if !ok {
		t.Fatalf("CountsFromTiles rejected valid tiles %v", kinds)
	}
	return h
}

func TestSolve_TripletsAndPair(t *testing.T) {
	h := mustCounts(t,
		BlackGeneral, BlackGeneral, BlackGeneral,
		RedChariot, RedChariot, RedChariot,
		BlackSoldier, BlackSoldier,
	)

	d := Solve(h, 2, 1)
	if !d.Possible {
		t.Fatalf("two triplets plus pair expected possible")
	}
	if d.PairKind != BlackSoldier {
		t.Fatalf("pair kind expected BlackSoldier, got %v", d.PairKind)
	}
	if len(d.Melds) != 2 {
		t.Fatalf("witness expected 2 melds, got %d", len(d.Melds))
	}
	for _, m := range d.Melds {
		if m.IsRun {
			t.Fatalf("witness expected triplets only, got run %v", m.Kinds)
		}
	}
}

func TestSolve_RunsAndPair(t *testing.T) {
	h := mustCounts(t,
		BlackGeneral, BlackAdvisor, BlackElephant,
		RedChariot, RedHorse, RedCannon,
		RedSoldier, RedSoldier,
	)

	d := Solve(h, 2, 1)
	if !d.Possible {
		t.Fatalf("two runs plus pair expected possible")
	}
	runs := 0
	for _, m := range d.Melds {
		if m.IsRun {
			runs++
		}
	}
	if runs != 2 {
		t.Fatalf("witness expected 2 runs, got %d", runs)
	}
}

func TestSolve_WitnessReconstructsHand(t *testing.T) {
	h := mustCounts(t,
		BlackChariot, BlackHorse, BlackCannon,
		BlackGeneral, BlackGeneral, BlackGeneral,
		RedGeneral, RedGeneral,
	)

	d := Solve(h, 2, 1)
	if !d.Possible {
		t.Fatalf("expected possible")
	}

	var rebuilt Hand14
	for _, m := range d.Melds {
		if m.IsRun {
			for _, k := range m.Kinds {
				rebuilt[k]++
			}
		} else {
			rebuilt[m.Kinds[0]] += 3
		}
	}
	if d.PairKind >= 0 {
		rebuilt[d.PairKind] += 2
	}
	if rebuilt != h {
		t.Fatalf("witness does not reconstruct hand: got %v, want %v", rebuilt, h)
	}
}

func TestSolve_MissingOneTileFails(t *testing.T) {
	// 从能胡的手牌里抽掉任意一张，换成无关牌后必不能胡
	winning := []TileKind{
		BlackGeneral, BlackAdvisor, BlackElephant,
		RedChariot, RedHorse, RedCannon,
		BlackSoldier, BlackSoldier,
	}
	for i := range winning {
		broken := make([]TileKind, len(winning))
		copy(broken, winning)
		broken[i] = RedSoldier
		h := mustCounts(t, broken...)
		if Solve(h, 2, 1).Possible {
			t.Fatalf("hand missing %v must not be winnable", winning[i])
		}
	}
}

func TestSolve_MixedGroupCannotRun(t *testing.T) {
	// 将士卒 spans command group and soldier, not a run
	h := mustCounts(t,
		BlackGeneral, BlackAdvisor, BlackSoldier,
		RedChariot, RedChariot, RedChariot,
		RedGeneral, RedGeneral,
	)
	if Solve(h, 2, 1).Possible {
		t.Fatalf("mixed-group tiles must not form a run")
	}
}

func TestSolve_CrossSuitCannotRun(t *testing.T) {
	// 黑将 红仕 黑象 same group but different suits
	h := mustCounts(t,
		BlackGeneral, RedAdvisor, BlackElephant,
		BlackSoldier, BlackSoldier, BlackSoldier,
		RedSoldier, RedSoldier,
	)
	if Solve(h, 2, 1).Possible {
		t.Fatalf("cross-suit tiles must not form a run")
	}
}

func TestSolve_SoldiersCannotRun(t *testing.T) {
	// 卒只能刻子，凑不出顺子
	h := mustCounts(t,
		BlackSoldier, BlackSoldier, RedSoldier,
		RedSoldier, RedSoldier, BlackSoldier,
		BlackGeneral, BlackGeneral,
	)
	d := Solve(h, 2, 1)
	if !d.Possible {
		t.Fatalf("two soldier triplets plus pair expected possible")
	}
	for _, m := range d.Melds {
		if m.IsRun {
			t.Fatalf("soldiers must only form triplets, got run %v", m.Kinds)
		}
	}
}

func TestSolve_LengthMismatch(t *testing.T) {
	h := mustCounts(t, BlackGeneral, BlackGeneral, BlackGeneral)
	if Solve(h, 2, 1).Possible {
		t.Fatalf("3 tiles cannot satisfy 2 melds + 1 pair")
	}
}

func TestSolve_NoPairNeeded(t *testing.T) {
	h := mustCounts(t, RedCannon, RedCannon, RedCannon)
	d := Solve(h, 1, 0)
	if !d.Possible {
		t.Fatalf("single triplet with no pair expected possible")
	}
	if d.PairKind != -1 {
		t.Fatalf("pair kind expected -1 when no pair asked, got %v", d.PairKind)
	}
}

func TestSolve_InvalidNeeds(t *testing.T) {
	var h Hand14
	if Solve(h, -1, 0).Possible {
		t.Fatalf("negative melds must be impossible")
	}
	if Solve(h, 0, 2).Possible {
		t.Fatalf("more than one pair must be impossible")
	}
}

func TestCountsFromTiles_RejectsOverflow(t *testing.T) {
	over := tiles(BlackHorse, BlackHorse, BlackHorse, BlackHorse, BlackHorse)
	if _, ok := CountsFromTiles(over); ok {
		t.Fatalf("five copies of one kind must be rejected")
	}
}

func TestSearcher_CanWinWithTile(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	// 将将将 车马炮 卒 听卒
	h := mustCounts(t,
		BlackGeneral, BlackGeneral, BlackGeneral,
		RedChariot, RedHorse, RedCannon,
		BlackSoldier,
	)
	if !s.CanWinWithTile(h, BlackSoldier, 2, 1) {
		t.Fatalf("drawing the pair tile expected to win")
	}
	if s.CanWinWithTile(h, RedGeneral, 2, 1) {
		t.Fatalf("unrelated tile must not win")
	}

	// 已经拿满四张的牌种不可能再进张
	full := mustCounts(t, RedSoldier, RedSoldier, RedSoldier, RedSoldier)
	if s.CanWinWithTile(full, RedSoldier, 1, 0) {
		t.Fatalf("fifth copy must be rejected")
	}
}

func TestSearcher_CacheConsistency(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	h := mustCounts(t,
		RedGeneral, RedAdvisor, RedElephant,
		BlackChariot, BlackChariot, BlackChariot,
		RedHorse, RedHorse,
	)
	first := s.CanWin(h, 2, 1)
	second := s.CanWin(h, 2, 1) // 第二次大概率走缓存
	if first != second {
		t.Fatalf("cached answer differs: first=%v second=%v", first, second)
	}
	if !first {
		t.Fatalf("run + triplet + pair expected to win")
	}
}
