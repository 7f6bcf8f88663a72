package chessmj

import "testing"

func seatedPlayer(t *testing.T, seat int, kinds ...TileKind) *PlayerImage {
	t.Helper()
	p := NewPlayerImage("user", seat)
	for _, tile := range tiles(kinds...) {
		p.AddTile(tile)
	}
	return p
}

func fourPlayers(t *testing.T) [4]*PlayerImage {
	t.Helper()
	var players [4]*PlayerImage
	for i := 0; i < 4; i++ {
		players[i] = NewPlayerImage("user", i)
	}
	return players
}

func findOp(reaction *PlayerReaction, opType string) *PlayerOperation {
	if reaction == nil {
		return nil
	}
	for _, op := range reaction.Operations {
		if op.Type == opType {
			return op
		}
	}
	return nil
}

func TestReactions_ChiOnlyNextSeat(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	players := fourPlayers(t)
	// 下家和对家都拿着黑士黑象，但只有下家能吃黑将
	players[1] = seatedPlayer(t, 1, BlackAdvisor, BlackElephant)
	players[2] = seatedPlayer(t, 2, BlackAdvisor, BlackElephant)

	dropped := Tile{Kind: BlackGeneral, ID: "d1"}
	reactions := CalculateAvailableReactions(players, 0, dropped, s)

	if findOp(reactions[1], OpTypeChi) == nil {
		t.Fatalf("next seat expected a chi option")
	}
	if findOp(reactions[2], OpTypeChi) != nil {
		t.Fatalf("opposite seat must not get a chi option")
	}
}

func TestReactions_SoldierHasNoChi(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	players := fourPlayers(t)
	players[1] = seatedPlayer(t, 1, BlackSoldier, RedSoldier)

	dropped := Tile{Kind: BlackSoldier, ID: "d1"}
	reactions := CalculateAvailableReactions(players, 0, dropped, s)

	if findOp(reactions[1], OpTypeChi) != nil {
		t.Fatalf("soldier discard must never be chi-able")
	}
}

func TestReactions_PengAndGangThresholds(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	players := fourPlayers(t)
	players[2] = seatedPlayer(t, 2, RedHorse, RedHorse)
	players[3] = seatedPlayer(t, 3, RedHorse, RedHorse, RedHorse)

	dropped := Tile{Kind: RedHorse, ID: "d1"}
	reactions := CalculateAvailableReactions(players, 0, dropped, s)

	if findOp(reactions[2], OpTypePeng) == nil {
		t.Fatalf("two copies expected a peng option")
	}
	if findOp(reactions[2], OpTypeGang) != nil {
		t.Fatalf("two copies must not offer gang")
	}
	gang := findOp(reactions[3], OpTypeGang)
	if gang == nil {
		t.Fatalf("three copies expected a gang option")
	}
	if len(gang.Tiles) != 3 {
		t.Fatalf("gang hands over 3 tiles, got %d", len(gang.Tiles))
	}
	if findOp(reactions[3], OpTypePeng) == nil {
		t.Fatalf("three copies still allow peng")
	}
}

func TestReactions_HuDetection(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	players := fourPlayers(t)
	// 将将将 车马炮 卒，听卒
	players[2] = seatedPlayer(t, 2,
		BlackGeneral, BlackGeneral, BlackGeneral,
		RedChariot, RedHorse, RedCannon,
		BlackSoldier,
	)

	dropped := Tile{Kind: BlackSoldier, ID: "d1"}
	reactions := CalculateAvailableReactions(players, 0, dropped, s)

	hu := findOp(reactions[2], OpTypeHu)
	if hu == nil {
		t.Fatalf("tenpai hand expected a hu option")
	}

	other := Tile{Kind: RedGeneral, ID: "d2"}
	reactions = CalculateAvailableReactions(players, 0, other, s)
	if findOp(reactions[2], OpTypeHu) != nil {
		t.Fatalf("off-wait tile must not offer hu")
	}
}

func TestReactions_DiscarderExcluded(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	players := fourPlayers(t)
	players[0] = seatedPlayer(t, 0, RedCannon, RedCannon, RedCannon)

	dropped := Tile{Kind: RedCannon, ID: "d1"}
	reactions := CalculateAvailableReactions(players, 0, dropped, s)

	if _, asked := reactions[0]; asked {
		t.Fatalf("discarder must not react to own discard")
	}
}

func TestReactions_EmptyWhenNothingLegal(t *testing.T) {
	s := NewSearcher()
	defer s.Close()

	players := fourPlayers(t)
	dropped := Tile{Kind: BlackElephant, ID: "d1"}
	reactions := CalculateAvailableReactions(players, 0, dropped, s)

	if len(reactions) != 0 {
		t.Fatalf("empty hands expected no reactions, got %d", len(reactions))
	}
}

func TestConcealedQuadOption(t *testing.T) {
	p := seatedPlayer(t, 0, RedSoldier, RedSoldier, RedSoldier, RedSoldier, BlackHorse)

	op := ConcealedQuadOption(p, RedSoldier)
	if op == nil || op.Type != OpTypeAnkan {
		t.Fatalf("four held copies expected an ankan option")
	}
	if len(op.Tiles) != 4 {
		t.Fatalf("ankan involves 4 tiles, got %d", len(op.Tiles))
	}
	if ConcealedQuadOption(p, BlackHorse) != nil {
		t.Fatalf("single copy must not offer ankan")
	}
}

func TestQuadUpgradeOption(t *testing.T) {
	p := seatedPlayer(t, 0, BlackCannon)
	p.Melds = append(p.Melds, Meld{
		Type:  OpTypePeng,
		Tiles: tiles(BlackCannon, BlackCannon, BlackCannon),
		From:  2,
	})

	op := QuadUpgradeOption(p, BlackCannon)
	if op == nil || op.Type != OpTypeKakan {
		t.Fatalf("fourth copy of a peng expected a kakan option")
	}

	// 没碰过就不能加杠
	q := seatedPlayer(t, 1, BlackCannon)
	if QuadUpgradeOption(q, BlackCannon) != nil {
		t.Fatalf("no peng meld must not offer kakan")
	}
}

func TestPlayerImage_ExpectedHandCount(t *testing.T) {
	p := NewPlayerImage("user", 0)
	if p.ExpectedHandCount() != 8 {
		t.Fatalf("no melds expected 8, got %d", p.ExpectedHandCount())
	}
	p.Melds = append(p.Melds, Meld{Type: OpTypePeng, Tiles: tiles(RedHorse, RedHorse, RedHorse), From: 1})
	if p.ExpectedHandCount() != 5 {
		t.Fatalf("one meld expected 5, got %d", p.ExpectedHandCount())
	}
	p.Melds = append(p.Melds, Meld{Type: OpTypeGang, Tiles: tiles(RedSoldier, RedSoldier, RedSoldier, RedSoldier), From: 2})
	if p.ExpectedHandCount() != 2 {
		t.Fatalf("gang counts as one meld unit, expected 2, got %d", p.ExpectedHandCount())
	}
}

func TestPlayerImage_DiscardNewestOrLast(t *testing.T) {
	p := NewPlayerImage("user", 0)
	for _, tile := range tiles(BlackGeneral, BlackAdvisor) {
		p.AddTile(tile)
	}
	drawn := Tile{Kind: RedSoldier, ID: "drawn"}
	p.DrawTile(drawn)

	tile, ok := p.DiscardNewestOrLast(3)
	if !ok {
		t.Fatalf("auto discard expected to succeed")
	}
	if tile.ID != drawn.ID {
		t.Fatalf("auto discard prefers the drawn tile, got %v", tile.Kind)
	}

	// 张数对不上说明不在出牌时机
	if _, ok := p.DiscardNewestOrLast(5); ok {
		t.Fatalf("wrong hand count must fail")
	}
}
