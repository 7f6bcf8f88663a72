package engines

import (
	"chessmahjong/game/share"
)

type engineType int32

const (
	CHESS_MAHJONG_4P_ENGINE engineType = iota // 象棋麻将4人 游戏引擎
)

type GameState int

const (
	GameWaiting    GameState = iota // 等待开始
	GameInProgress                  // 进行中
	GamePaused                      // 暂停
	GameFinished                    // 结束
)

// Engine 使用原型模式，每张桌子都有一个游戏引擎
type Engine interface {
	// InitializeEngine 初始化游戏引擎
	// users: Table.Users map，Engine 和 Table 共用
	InitializeEngine(tableID string, users map[string]*share.UserInfo) error

	// NotifyEvent 通知游戏事件（入队，由引擎内部串行处理）
	NotifyEvent(event share.GameEvent)

	// Clone 克隆引擎实例（用于原型模式）
	Clone() Engine

	// Terminate 触发销毁桌子（异步请求）
	Terminate()

	// Close 释放引擎内部资源
	Close()
}
