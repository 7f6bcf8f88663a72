package chessmj

type PlayerImage struct {
	UserID      string
	SeatIndex   int
	Tiles       []Tile // 手中的暗牌
	DiscardPile []Tile // 弃牌堆
	Melds       []Meld // 碰、杠、吃的副露
	NewestTile  *Tile  // 最新摸的牌（用于自摸判断和超时自动出牌）
}

// NewPlayerImage 创建玩家游戏状态实例
func NewPlayerImage(userID string, seatIndex int) *PlayerImage {
	return &PlayerImage{
		UserID:      userID,
		SeatIndex:   seatIndex,
		Tiles:       make([]Tile, 0, 9),
		DiscardPile: make([]Tile, 0, 14),
		Melds:       make([]Meld, 0, 3),
		NewestTile:  nil,
	}
}

func (p *PlayerImage) AddTile(tile Tile) {
	p.Tiles = append(p.Tiles, tile)
}

func (p *PlayerImage) DrawTile(tile Tile) {
	p.Tiles = append(p.Tiles, tile)
	newest := tile
	p.NewestTile = &newest
}

func (p *PlayerImage) RemoveTile(tile Tile) bool {
	for i := range p.Tiles {
		if p.Tiles[i].Kind == tile.Kind && p.Tiles[i].ID == tile.ID {
			p.Tiles = append(p.Tiles[:i], p.Tiles[i+1:]...)
			return true
		}
	}
	return false
}

func (p *PlayerImage) DiscardTile(tile Tile) bool {
	if !p.RemoveTile(tile) {
		return false
	}
	p.DiscardPile = append(p.DiscardPile, tile)
	if p.NewestTile != nil && p.NewestTile.Kind == tile.Kind && p.NewestTile.ID == tile.ID {
		p.NewestTile = nil
	}
	return true
}

// DiscardNewestOrLast 超时自动出牌：优先打刚摸的，否则打最后一张
// 手牌张数不对说明不在出牌时机
func (p *PlayerImage) DiscardNewestOrLast(expectedCount int) (Tile, bool) {
	if len(p.Tiles) != expectedCount {
		return Tile{}, false
	}
	var tile Tile
	if p.NewestTile != nil {
		tile = *p.NewestTile
	} else {
		tile = p.Tiles[len(p.Tiles)-1]
	}
	if !p.DiscardTile(tile) {
		return Tile{}, false
	}
	return tile, true
}

// CountKind 手里某牌种的张数
func (p *PlayerImage) CountKind(kind TileKind) int {
	count := 0
	for _, t := range p.Tiles {
		if t.Kind == kind {
			count++
		}
	}
	return count
}

// OpenMeldUnits 副露折算的面子数，杠只算一组
func (p *PlayerImage) OpenMeldUnits() int {
	units := 0
	for i := range p.Melds {
		units += p.Melds[i].MeldUnits()
	}
	return units
}

// ConcealedCounts 暗牌的计数视图
func (p *PlayerImage) ConcealedCounts() (Hand14, bool) {
	return CountsFromTiles(p.Tiles)
}

// ExpectedHandCount 出牌前手里应有的张数
// 基准是 8 张（庄家起手），每组副露占掉 3 张的名额
func (p *PlayerImage) ExpectedHandCount() int {
	return 8 - 3*p.OpenMeldUnits()
}
