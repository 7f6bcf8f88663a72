package chessmj

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Suit int

const (
	SuitBlack Suit = iota // 黑方
	SuitRed               // 红方
)

type TileKind int

const (
	// 黑方 (0-6)
	BlackGeneral TileKind = iota // 黑将
	BlackAdvisor                 // 黑士
	BlackElephant                // 黑象
	BlackChariot                 // 黑车
	BlackHorse                   // 黑马
	BlackCannon                  // 黑炮
	BlackSoldier                 // 黑卒

	// 红方 (7-13)
	RedGeneral  // 红帅
	RedAdvisor  // 红仕
	RedElephant // 红相
	RedChariot  // 红车
	RedHorse    // 红马
	RedCannon   // 红炮
	RedSoldier  // 红兵
)

const (
	KindCount = 14 // 牌种数
	CopyCount = 4  // 每种牌的张数
	TileLimit = KindCount * CopyCount
)

// 组别：将士象是帅组，车马炮是武组，兵卒不归组（不能组成顺子）
const (
	GroupNone    = 0 // 兵卒
	GroupCommand = 1 // 将士象
	GroupForce   = 2 // 车马炮
)

type Tile struct {
	Kind TileKind
	ID   string // 实体牌唯一编号，区分同种的四张
}

// NewTile 造一张实体牌
func NewTile(kind TileKind) Tile {
	return Tile{Kind: kind, ID: uuid.NewString()}
}

func (k TileKind) Suit() Suit {
	if k >= RedGeneral {
		return SuitRed
	}
	return SuitBlack
}

func (k TileKind) Group() int {
	switch k {
	case BlackGeneral, BlackAdvisor, BlackElephant, RedGeneral, RedAdvisor, RedElephant:
		return GroupCommand
	case BlackChariot, BlackHorse, BlackCannon, RedChariot, RedHorse, RedCannon:
		return GroupForce
	default:
		return GroupNone
	}
}

// OrderValue 牌的位阶，将7 士6 象5 车4 马3 炮2 卒1
func (k TileKind) OrderValue() int {
	switch k {
	case BlackGeneral, RedGeneral:
		return 7
	case BlackAdvisor, RedAdvisor:
		return 6
	case BlackElephant, RedElephant:
		return 5
	case BlackChariot, RedChariot:
		return 4
	case BlackHorse, RedHorse:
		return 3
	case BlackCannon, RedCannon:
		return 2
	default:
		return 1
	}
}

func (k TileKind) String() string {
	names := [KindCount]string{
		"黑将", "黑士", "黑象", "黑车", "黑马", "黑炮", "黑卒",
		"红帅", "红仕", "红相", "红车", "红马", "红炮", "红兵",
	}
	if k < 0 || int(k) >= KindCount {
		return "未知"
	}
	return names[k]
}

func (k TileKind) IsValid() bool {
	return k >= BlackGeneral && int(k) < KindCount
}

// groupRank 排序用的组序：帅组 < 武组 < 兵卒
func groupRank(k TileKind) int {
	switch k.Group() {
	case GroupCommand:
		return 0
	case GroupForce:
		return 1
	default:
		return 2
	}
}

// SortTiles 手牌排序：先黑后红，组内帅组、武组、兵卒，同组按位阶从大到小
func SortTiles(tiles []Tile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		a, b := tiles[i].Kind, tiles[j].Kind
		if a.Suit() != b.Suit() {
			return a.Suit() < b.Suit()
		}
		if groupRank(a) != groupRank(b) {
			return groupRank(a) < groupRank(b)
		}
		return a.OrderValue() > b.OrderValue()
	})
}

// ==================== 顺子定义 ====================

// RunDefinition 顺子定义
// 只有同色同组的三张才能组顺子，全部牌池里一共四种
type RunDefinition struct {
	Suit  Suit
	Group int
	Kinds [3]TileKind
}

var runTable = [4]RunDefinition{
	{Suit: SuitBlack, Group: GroupCommand, Kinds: [3]TileKind{BlackGeneral, BlackAdvisor, BlackElephant}},
	{Suit: SuitBlack, Group: GroupForce, Kinds: [3]TileKind{BlackChariot, BlackHorse, BlackCannon}},
	{Suit: SuitRed, Group: GroupCommand, Kinds: [3]TileKind{RedGeneral, RedAdvisor, RedElephant}},
	{Suit: SuitRed, Group: GroupForce, Kinds: [3]TileKind{RedChariot, RedHorse, RedCannon}},
}

// RunDefinitions 所有顺子定义
func RunDefinitions() [4]RunDefinition {
	return runTable
}

// RunForKind 返回包含该牌种的顺子定义，兵卒没有
func RunForKind(kind TileKind) (RunDefinition, bool) {
	group := kind.Group()
	if group == GroupNone {
		return RunDefinition{}, false
	}
	for _, def := range runTable {
		if def.Suit == kind.Suit() && def.Group == group {
			return def, true
		}
	}
	return RunDefinition{}, false
}

// ==================== 牌堆 ====================

type DeckManager struct {
	wall      []Tile
	wallIndex int
	remain    [KindCount]int // 各牌种在牌堆里的剩余张数
	rng       *rand.Rand
}

func NewDeckManager() *DeckManager {
	return &DeckManager{
		wall:      make([]Tile, 0, TileLimit),
		wallIndex: 0,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// InitRound 重建并洗乱 56 张牌
func (dm *DeckManager) InitRound() {
	dm.wall = dm.wall[:0]
	dm.wallIndex = 0

	for kind := 0; kind < KindCount; kind++ {
		dm.remain[kind] = CopyCount
		for i := 0; i < CopyCount; i++ {
			dm.wall = append(dm.wall, NewTile(TileKind(kind)))
		}
	}

	dm.rng.Shuffle(len(dm.wall), func(i, j int) {
		dm.wall[i], dm.wall[j] = dm.wall[j], dm.wall[i]
	})
}

func (dm *DeckManager) Draw() (Tile, bool) {
	if dm.wallIndex >= len(dm.wall) {
		return Tile{}, false
	}
	t := dm.wall[dm.wallIndex]
	dm.wallIndex++
	dm.remain[int(t.Kind)]--
	return t, true
}

// Remaining 牌堆剩余张数
func (dm *DeckManager) Remaining() int {
	return len(dm.wall) - dm.wallIndex
}

// ==================== 副露与操作 ====================

// Meld 副露
// Tiles 的第一张约定是被叫的牌（吃碰杠来自别家的那张），暗杠时无此约定
type Meld struct {
	Type  string // "PENG", "GANG", "CHI", "ANKAN", "KAKAN"
	Tiles []Tile
	From  int // 从哪个座位叫的牌，暗杠为 -1
}

// IsConcealed 暗杠不亮给别家
func (m *Meld) IsConcealed() bool {
	return m.Type == OpTypeAnkan
}

// MeldUnits 副露折算的面子数，杠和刻子、顺子一样只算一组
func (m *Meld) MeldUnits() int {
	return 1
}

const (
	OpTypeHu    = "HU"
	OpTypeGang  = "GANG"
	OpTypePeng  = "PENG"
	OpTypeChi   = "CHI"
	OpTypeSkip  = "SKIP"
	OpTypeAnkan = "ANKAN"
	OpTypeKakan = "KAKAN"
)

type PlayerOperation struct {
	Type  string // "HU", "GANG", "PENG", "CHI"
	Tiles []Tile // 操作涉及的牌（对于吃碰杠，是自己手里要交出的牌）
}

// PlayerReaction 玩家的反应信息
type PlayerReaction struct {
	Operations []*PlayerOperation // 该玩家可用的所有操作选择
	ChosenOp   *PlayerOperation   // 玩家选择的操作（nil表示未响应或放弃）
	Responded  bool               // 是否已响应
}

// ReactionAction 裁决出的反应操作
type ReactionAction struct {
	Type       string // "HU", "GANG", "PENG", "CHI"
	PlayerSeat int
	Tiles      []Tile
}

// LastDiscard 最近一张弃牌，响应窗口围绕它展开
type LastDiscard struct {
	Seat  int
	Tile  Tile
	Valid bool
}
