package chessmj

import "testing"

func TestRunDefinitions_CoverAllGroupedKinds(t *testing.T) {
	covered := make(map[TileKind]int)
	for _, def := range RunDefinitions() {
		for _, kind := range def.Kinds {
			covered[kind]++
			if kind.Suit() != def.Suit {
				t.Fatalf("run %v mixes suits", def.Kinds)
			}
			if kind.Group() != def.Group {
				t.Fatalf("run %v mixes groups", def.Kinds)
			}
		}
	}

	for kind := BlackGeneral; int(kind) < KindCount; kind++ {
		if kind.Group() == GroupNone {
			if covered[kind] != 0 {
				t.Fatalf("soldier kind %v must not appear in any run", kind)
			}
			continue
		}
		if covered[kind] != 1 {
			t.Fatalf("kind %v expected in exactly one run, got %d", kind, covered[kind])
		}
	}
}

func TestRunForKind(t *testing.T) {
	def, ok := RunForKind(RedHorse)
	if !ok {
		t.Fatalf("RedHorse expected a run definition")
	}
	want := [3]TileKind{RedChariot, RedHorse, RedCannon}
	if def.Kinds != want {
		t.Fatalf("RedHorse run expected %v, got %v", want, def.Kinds)
	}

	if _, ok := RunForKind(BlackSoldier); ok {
		t.Fatalf("soldiers must have no run definition")
	}
	if _, ok := RunForKind(TileKind(99)); ok {
		t.Fatalf("invalid kind must have no run definition")
	}
}

func TestSortTiles_Order(t *testing.T) {
	hand := tiles(RedSoldier, BlackCannon, RedGeneral, BlackSoldier, BlackGeneral, BlackChariot)
	SortTiles(hand)

	want := []TileKind{BlackGeneral, BlackChariot, BlackCannon, BlackSoldier, RedGeneral, RedSoldier}
	for i, tile := range hand {
		if tile.Kind != want[i] {
			t.Fatalf("position %d expected %v, got %v", i, want[i], tile.Kind)
		}
	}
}

func TestDeckManager_Composition(t *testing.T) {
	dm := NewDeckManager()
	dm.InitRound()

	if dm.Remaining() != TileLimit {
		t.Fatalf("fresh wall expected %d tiles, got %d", TileLimit, dm.Remaining())
	}

	counts := make(map[TileKind]int)
	ids := make(map[string]struct{})
	for {
		tile, ok := dm.Draw()
		if !ok {
			break
		}
		counts[tile.Kind]++
		if _, dup := ids[tile.ID]; dup {
			t.Fatalf("duplicate tile ID %s", tile.ID)
		}
		ids[tile.ID] = struct{}{}
	}

	if len(ids) != TileLimit {
		t.Fatalf("wall expected %d tiles, drew %d", TileLimit, len(ids))
	}
	for kind := BlackGeneral; int(kind) < KindCount; kind++ {
		if counts[kind] != CopyCount {
			t.Fatalf("kind %v expected %d copies, got %d", kind, CopyCount, counts[kind])
		}
	}

	if _, ok := dm.Draw(); ok {
		t.Fatalf("empty wall must not deal")
	}
}

func TestDeckManager_InitRoundResets(t *testing.T) {
	dm := NewDeckManager()
	dm.InitRound()
	for i := 0; i < 10; i++ {
		dm.Draw()
	}
	dm.InitRound()
	if dm.Remaining() != TileLimit {
		t.Fatalf("InitRound expected a full wall, got %d", dm.Remaining())
	}
}

func TestMeld_IsConcealed(t *testing.T) {
	ankan := Meld{Type: OpTypeAnkan, Tiles: tiles(RedSoldier, RedSoldier, RedSoldier, RedSoldier), From: -1}
	if !ankan.IsConcealed() {
		t.Fatalf("ankan expected concealed")
	}
	peng := Meld{Type: OpTypePeng, Tiles: tiles(RedSoldier, RedSoldier, RedSoldier), From: 1}
	if peng.IsConcealed() {
		t.Fatalf("peng expected open")
	}
}
