package share

// Tile 牌在消息层的表示
// Kind 是牌种（黑将、红车……），ID 是实体牌的唯一编号
type Tile struct {
	Kind int    `json:"kind"`
	ID   string `json:"id"`
}

// GameEvent 游戏事件接口
type GameEvent interface {
	GetUserID() string
	GetEventType() string
}

type GameMessageEvent struct {
	UserID string `json:"userID"` // 用户 ID（用于查找座位）
}

func (e *GameMessageEvent) GetUserID() string {
	return e.UserID
}

type DiscardTileEvent struct {
	GameMessageEvent
	Tile Tile `json:"tile"` // 打出的牌
}

func (e *DiscardTileEvent) GetEventType() string {
	return "Discard"
}

func (e *DiscardTileEvent) GetTile() Tile {
	return e.Tile
}

// HuClaimEvent 响应窗口内对别家弃牌宣胡
type HuClaimEvent struct {
	GameMessageEvent
}

func (e *HuClaimEvent) GetEventType() string {
	return "HuClaim"
}

// GangClaimEvent 响应窗口内宣明杠
type GangClaimEvent struct {
	GameMessageEvent
}

func (e *GangClaimEvent) GetEventType() string {
	return "GangClaim"
}

// PengClaimEvent 响应窗口内宣碰
type PengClaimEvent struct {
	GameMessageEvent
}

func (e *PengClaimEvent) GetEventType() string {
	return "PengClaim"
}

// ChiClaimEvent 响应窗口内宣吃（只有下家能发）
type ChiClaimEvent struct {
	GameMessageEvent
}

func (e *ChiClaimEvent) GetEventType() string {
	return "ChiClaim"
}

// PassEvent 明确放弃本次响应
type PassEvent struct {
	GameMessageEvent
}

func (e *PassEvent) GetEventType() string {
	return "Pass"
}

// SelfHuEvent 自摸胡（自己回合）
type SelfHuEvent struct {
	GameMessageEvent
}

func (e *SelfHuEvent) GetEventType() string {
	return "SelfHu"
}

// ConcealedQuadEvent 暗杠事件（玩家自己回合，手里凑齐四张）
type ConcealedQuadEvent struct {
	GameMessageEvent
	Tile Tile `json:"tile"` // 四张相同牌中的任意一张
}

func (e *ConcealedQuadEvent) GetEventType() string {
	return "ConcealedQuad"
}

func (e *ConcealedQuadEvent) GetTile() Tile {
	return e.Tile
}

// QuadUpgradeEvent 加杠事件（把已碰的刻子升级为杠）
type QuadUpgradeEvent struct {
	GameMessageEvent
	Tile Tile `json:"tile"` // 第四张相同的牌
}

func (e *QuadUpgradeEvent) GetEventType() string {
	return "QuadUpgrade"
}

func (e *QuadUpgradeEvent) GetTile() Tile {
	return e.Tile
}

type ReconnectEvent struct {
	GameMessageEvent
}

func (e *ReconnectEvent) GetEventType() string {
	return "Reconnect"
}

type DisconnectEvent struct {
	GameMessageEvent
}

func (e *DisconnectEvent) GetEventType() string {
	return "Disconnect"
}
