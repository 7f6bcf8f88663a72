package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchRecord 对局记录元数据（聚合根）
// 存储一张桌子从开局到整场结束的基本信息
type MatchRecord struct {
	ID        primitive.ObjectID `bson:"_id"`
	TableID   string             `bson:"table_id"`   // 桌子ID
	GameType  string             `bson:"game_type"`  // "chess_mahjong_4p"
	Players   []PlayerInfo       `bson:"players"`    // 玩家信息（座位、用户ID）
	StartTime time.Time          `bson:"start_time"` // 开局时间
	EndTime   time.Time          `bson:"end_time"`   // 整场结束时间
	Duration  int                `bson:"duration"`   // 时长（秒）
	Status    string             `bson:"status"`     // "in_progress", "completed", "aborted"
	CreatedAt time.Time          `bson:"created_at"`
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	UserID    string `bson:"user_id"`
	SeatIndex int    `bson:"seat_index"`
	Nickname  string `bson:"nickname,omitempty"` // 可选
}

// NewMatchRecord 创建对局记录
func NewMatchRecord(tableID, gameType string, players []PlayerInfo) *MatchRecord {
	return &MatchRecord{
		ID:        primitive.NewObjectID(),
		TableID:   tableID,
		GameType:  gameType,
		Players:   players,
		StartTime: time.Now(),
		Status:    "in_progress",
		CreatedAt: time.Now(),
	}
}

// CompleteMatch 整场结束
func (mr *MatchRecord) CompleteMatch() {
	mr.EndTime = time.Now()
	mr.Duration = int(mr.EndTime.Sub(mr.StartTime).Seconds())
	mr.Status = "completed"
}

// AbortMatch 中止对局
func (mr *MatchRecord) AbortMatch() {
	mr.EndTime = time.Now()
	mr.Duration = int(mr.EndTime.Sub(mr.StartTime).Seconds())
	mr.Status = "aborted"
}
