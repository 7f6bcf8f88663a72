package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoundRecord 局记录（每局一个文档）
// 只存事件流，不存手牌快照，回放引擎不在本服务范围内
type RoundRecord struct {
	ID            primitive.ObjectID `bson:"_id"`
	MatchRecordID primitive.ObjectID `bson:"match_record_id"` // 关联对局记录
	RoundNumber   int                `bson:"round_number"`    // 局数，从 1 开始
	DealerIndex   int                `bson:"dealer_index"`    // 庄家座位
	Events        []RoundEvent       `bson:"events"`          // 事件流（按时间顺序）
	RoundResult   *RoundResult       `bson:"round_result"`    // 局结果（结束时设置）
	StartTime     time.Time          `bson:"start_time"`
	EndTime       time.Time          `bson:"end_time"`
	Duration      int                `bson:"duration"` // 局时长（秒）
	CreatedAt     time.Time          `bson:"created_at"`
}

// RoundEvent 局内事件
type RoundEvent struct {
	Sequence  int                    `bson:"sequence"`   // 事件序号（从0开始，该局内递增）
	EventType string                 `bson:"event_type"` // 事件类型
	Timestamp time.Time              `bson:"timestamp"`  // 事件发生时间
	SeatIndex int                    `bson:"seat_index"` // 操作玩家座位（-1表示系统事件）
	Data      map[string]interface{} `bson:"data"`       // 事件数据，灵活存储
}

// RoundResult 局结果
type RoundResult struct {
	EndType    string    `bson:"end_type"` // "HU", "SELF_HU", "DRAW_EXHAUSTIVE", "ABORTED"
	Winners    []HuClaim `bson:"winners"`  // 胡牌信息，一炮多响时多条
	NextDealer int       `bson:"next_dealer"`
}

// HuClaim 胡牌信息
type HuClaim struct {
	WinnerSeat int  `bson:"winner_seat"` // 胡牌玩家座位
	LoserSeat  int  `bson:"loser_seat"`  // 点炮玩家座位，自摸时为 -1
	WinTile    Tile `bson:"win_tile"`    // 胡的那张牌
}

// Tile 牌（用于存储）
type Tile struct {
	Kind int    `bson:"kind"` // TileKind
	ID   string `bson:"id"`   // 牌的唯一ID
}

// NewRoundRecord 创建局记录
func NewRoundRecord(matchRecordID primitive.ObjectID, roundNumber, dealerIndex int) *RoundRecord {
	return &RoundRecord{
		ID:            primitive.NewObjectID(),
		MatchRecordID: matchRecordID,
		RoundNumber:   roundNumber,
		DealerIndex:   dealerIndex,
		Events:        make([]RoundEvent, 0, 100), // 预分配容量
		StartTime:     time.Now(),
		CreatedAt:     time.Now(),
	}
}

// AddEvent 添加事件
func (rr *RoundRecord) AddEvent(eventType string, seatIndex int, data map[string]interface{}) {
	event := RoundEvent{
		Sequence:  len(rr.Events),
		EventType: eventType,
		Timestamp: time.Now(),
		SeatIndex: seatIndex,
		Data:      data,
	}
	rr.Events = append(rr.Events, event)
}

// CompleteRound 完成一局（设置局结果）
func (rr *RoundRecord) CompleteRound(result *RoundResult) {
	rr.EndTime = time.Now()
	rr.Duration = int(rr.EndTime.Sub(rr.StartTime).Seconds())
	rr.RoundResult = result
}

// 事件类型常量
const (
	EventTypeRoundStart  = "round_start"  // 一局开始（含发牌）
	EventTypeDrawTile    = "draw_tile"    // 摸牌
	EventTypeDiscardTile = "discard_tile" // 出牌
	EventTypeClaimWindow = "claim_window" // 响应窗口开启
	EventTypeClaimSubmit = "claim_submit" // 座位提交响应
	EventTypeClaimResult = "claim_result" // 窗口裁决结果
	EventTypeChi         = "chi"          // 吃
	EventTypePeng        = "peng"         // 碰
	EventTypeGang        = "gang"         // 明杠
	EventTypeAnkan       = "ankan"        // 暗杠
	EventTypeKakan       = "kakan"        // 加杠
	EventTypeHu          = "hu"           // 点炮胡
	EventTypeSelfHu      = "self_hu"      // 自摸胡
	EventTypeRoundEnd    = "round_end"    // 一局结束
)
