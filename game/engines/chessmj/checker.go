package chessmj

// 胡牌目标：两组面子加一对雀头，副露折算后剩下的由暗牌凑
const (
	winMeldTarget = 2
	winPairTarget = 1
)

// canHuTile 检查玩家能否荣和这张牌
// 暗牌并上这张牌后要能凑齐剩余的面子数和一对雀头
func canHuTile(player *PlayerImage, tile Tile, searcher *Searcher) bool {
	if player == nil {
		return false
	}

	meldsNeeded := winMeldTarget - player.OpenMeldUnits()
	if meldsNeeded < 0 {
		return false
	}

	counts, ok := player.ConcealedCounts()
	if !ok {
		return false
	}

	return searcher.CanWinWithTile(counts, tile.Kind, meldsNeeded, winPairTarget)
}

// canSelfHu 检查玩家摸牌后能否自摸
// 摸的牌已经在手里，直接对暗牌判定
func canSelfHu(player *PlayerImage, searcher *Searcher) bool {
	if player == nil {
		return false
	}

	meldsNeeded := winMeldTarget - player.OpenMeldUnits()
	if meldsNeeded < 0 {
		return false
	}

	counts, ok := player.ConcealedCounts()
	if !ok {
		return false
	}

	return searcher.CanWin(counts, meldsNeeded, winPairTarget)
}

// canGangTile 检查玩家能否明杠，手里要有同种三张
func canGangTile(player *PlayerImage, tile Tile) bool {
	if player == nil {
		return false
	}
	return player.CountKind(tile.Kind) >= 3
}

// canPengTile 检查玩家能否碰，手里要有同种两张
func canPengTile(player *PlayerImage, tile Tile) bool {
	if player == nil {
		return false
	}
	return player.CountKind(tile.Kind) >= 2
}

// canChiTile 检查玩家能否吃
// 弃牌要在某个顺子定义里，而且另外两种都在手上；兵卒不成顺
// 只有下家能吃的限制在收集层做
func canChiTile(player *PlayerImage, tile Tile) bool {
	if player == nil {
		return false
	}

	def, ok := RunForKind(tile.Kind)
	if !ok {
		return false
	}

	for _, kind := range def.Kinds {
		if kind == tile.Kind {
			continue
		}
		if player.CountKind(kind) == 0 {
			return false
		}
	}
	return true
}
