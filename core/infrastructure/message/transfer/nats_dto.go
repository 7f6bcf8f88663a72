package transfer

import (
	"chessmahjong/core/infrastructure/message/protocol"
)

type SessionData struct {
	SingleData map[string]any //只保存当前 connID
	AllData    map[string]any //所有 connID 都需要保存
}

// ServicePacket 用于服务节点之间通信，有两层路由
type ServicePacket struct {
	Body        *protocol.Message
	Source      string
	Destination string
	Route       string
	SessionData *SessionData
	PushUser    []string
}

// MatchSuccessDTO 撮合成功通知
type MatchSuccessDTO struct {
	TableNodeID string            `json:"tableNodeID"`
	Players     map[string]string `json:"players"` // userID -> connectorNodeID
}
