package chessmj

// CalculateAvailableReactions 针对一张弃牌，算出每个座位合法的响应操作
// discarderSeat 自己不响应自己的弃牌；吃只开放给下家
// 返回的 map 只包含至少有一个操作的座位
func CalculateAvailableReactions(players [4]*PlayerImage, discarderSeat int, droppedTile Tile, searcher *Searcher) map[int]*PlayerReaction {
	reactions := make(map[int]*PlayerReaction)

	for i := 0; i < 4; i++ {
		if i == discarderSeat {
			continue
		}
		player := players[i]
		if player == nil {
			continue
		}

		var playerOps []*PlayerOperation

		if canHuTile(player, droppedTile, searcher) {
			playerOps = append(playerOps, &PlayerOperation{
				Type:  OpTypeHu,
				Tiles: []Tile{droppedTile},
			})
		}

		if op := gangOption(player, droppedTile); op != nil {
			playerOps = append(playerOps, op)
		}

		if op := pengOption(player, droppedTile); op != nil {
			playerOps = append(playerOps, op)
		}

		// 吃只有下家可以
		if (discarderSeat+1)%4 == i {
			if op := chiOption(player, droppedTile); op != nil {
				playerOps = append(playerOps, op)
			}
		}

		if len(playerOps) > 0 {
			reactions[i] = &PlayerReaction{
				Operations: playerOps,
				ChosenOp:   nil,
				Responded:  false,
			}
		}
	}

	return reactions
}

// gangOption 明杠要交出的三张
// 同种牌完全等价，取前三张即可，不用枚举组合
func gangOption(player *PlayerImage, droppedTile Tile) *PlayerOperation {
	if !canGangTile(player, droppedTile) {
		return nil
	}

	matching := make([]Tile, 0, 3)
	for _, tile := range player.Tiles {
		if tile.Kind == droppedTile.Kind {
			matching = append(matching, tile)
			if len(matching) == 3 {
				break
			}
		}
	}
	if len(matching) < 3 {
		return nil
	}

	return &PlayerOperation{Type: OpTypeGang, Tiles: matching}
}

// pengOption 碰要交出的两张
func pengOption(player *PlayerImage, droppedTile Tile) *PlayerOperation {
	if !canPengTile(player, droppedTile) {
		return nil
	}

	matching := make([]Tile, 0, 2)
	for _, tile := range player.Tiles {
		if tile.Kind == droppedTile.Kind {
			matching = append(matching, tile)
			if len(matching) == 2 {
				break
			}
		}
	}
	if len(matching) < 2 {
		return nil
	}

	return &PlayerOperation{Type: OpTypePeng, Tiles: matching}
}

// chiOption 吃要交出的两张：顺子定义里缺的两种各取一张
func chiOption(player *PlayerImage, droppedTile Tile) *PlayerOperation {
	if !canChiTile(player, droppedTile) {
		return nil
	}

	def, ok := RunForKind(droppedTile.Kind)
	if !ok {
		return nil
	}

	handTiles := make([]Tile, 0, 2)
	for _, kind := range def.Kinds {
		if kind == droppedTile.Kind {
			continue
		}
		found := false
		for _, tile := range player.Tiles {
			if tile.Kind == kind {
				handTiles = append(handTiles, tile)
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}

	return &PlayerOperation{Type: OpTypeChi, Tiles: handTiles}
}

// ConcealedQuadOption 暗杠选择：手里凑齐四张同种
func ConcealedQuadOption(player *PlayerImage, kind TileKind) *PlayerOperation {
	if player == nil || player.CountKind(kind) < 4 {
		return nil
	}

	matching := make([]Tile, 0, 4)
	for _, tile := range player.Tiles {
		if tile.Kind == kind {
			matching = append(matching, tile)
		}
	}
	return &PlayerOperation{Type: OpTypeAnkan, Tiles: matching}
}

// QuadUpgradeOption 加杠选择：手里摸到已碰刻子的第四张
func QuadUpgradeOption(player *PlayerImage, kind TileKind) *PlayerOperation {
	if player == nil || player.CountKind(kind) < 1 {
		return nil
	}

	hasPeng := false
	for i := range player.Melds {
		if player.Melds[i].Type == OpTypePeng && len(player.Melds[i].Tiles) > 0 && player.Melds[i].Tiles[0].Kind == kind {
			hasPeng = true
			break
		}
	}
	if !hasPeng {
		return nil
	}

	for _, tile := range player.Tiles {
		if tile.Kind == kind {
			return &PlayerOperation{Type: OpTypeKakan, Tiles: []Tile{tile}}
		}
	}
	return nil
}
