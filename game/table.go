package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"chessmahjong/core/infrastructure/message/transfer"
	"chessmahjong/game/engines"
	"chessmahjong/game/share"
)

const (
	MaxPlayers = 4 // 象棋麻将固定4人
)

// TableStatus 桌子状态
type TableStatus int

const (
	TableStatusWaiting  TableStatus = iota // 等待开始
	TableStatusPlaying                     // 对局中
	TableStatusFinished                    // 已结束
)

// Table 一张牌桌
// Users 由 Table 和 Engine 共用，座位在建桌时一次性分好
type Table struct {
	ID        string                     // 桌子 ID
	Users     map[string]*share.UserInfo // userID -> UserInfo
	Engine    engines.Engine             // 克隆出来的引擎实例
	Status    TableStatus
	CreatedAt time.Time
	mu        sync.RWMutex
}

// GenerateTableID 生成桌子 ID
// 格式：table_<timestamp>_<random>
func GenerateTableID() string {
	timestamp := time.Now().Unix()
	randomBytes := make([]byte, 4)
	rand.Read(randomBytes)
	randomStr := hex.EncodeToString(randomBytes)
	return fmt.Sprintf("table_%d_%s", timestamp, randomStr)
}

// NewTable 创建桌子
// users: userID -> connector 节点 ID（来自撮合节点的开局通知）
func NewTable(engine engines.Engine, users map[string]string) (*Table, error) {
	if engine == nil {
		return nil, fmt.Errorf("引擎实例不能为空")
	}
	if len(users) != MaxPlayers {
		return nil, transfer.ErrNotEnoughPlayers
	}

	userMap := make(map[string]*share.UserInfo, MaxPlayers)
	seat := 0
	for userID, connectorNodeID := range users {
		info := share.NewUserInfo(userID, connectorNodeID)
		info.SeatIndex = seat
		userMap[userID] = info
		seat++
	}

	return &Table{
		ID:        GenerateTableID(),
		Users:     userMap,
		Engine:    engine,
		Status:    TableStatusWaiting,
		CreatedAt: time.Now(),
	}, nil
}

// GetPlayer 获取玩家信息
func (t *Table) GetPlayer(userID string) (*share.UserInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	user, exists := t.Users[userID]
	return user, exists
}

// GetAllUserIDs 获取所有玩家 ID（返回副本）
func (t *Table) GetAllUserIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	userIDs := make([]string, 0, len(t.Users))
	for userID := range t.Users {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// UpdateStatus 更新桌子状态
func (t *Table) UpdateStatus(status TableStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Status = status
}

// GetStatus 获取桌子状态
func (t *Table) GetStatus() TableStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.Status
}

// Close 关闭桌子，释放引擎资源
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Engine != nil {
		t.Engine.Close()
		t.Engine = nil
	}
	t.Status = TableStatusFinished
}
