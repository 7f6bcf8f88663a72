package transfer

import (
	"errors"
)

// 桌子相关错误
var (
	ErrTableNotFound     = errors.New("table not found")
	ErrPlayerNotInTable  = errors.New("player not in table")
	ErrNotEnoughPlayers  = errors.New("a table needs exactly four players")
	ErrEngineUnsupported = errors.New("engine type not supported")

	// 用户路由相关错误
	ErrRouterNotFound = errors.New("user router not found")

	ErrMatchRecordNotFound = errors.New("match record not found")

	ErrMongodb = errors.New("mongodb error happen")
	ErrRedis   = errors.New("redis error happen")
)

// 连接相关错误
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendChanFull     = errors.New("send channel full")
	ErrNotConnected     = errors.New("not connected")
)

// 消息相关错误
var (
	ErrInvalidRoute     = errors.New("invalid route")
	ErrHandlerNotFound  = errors.New("handler not found")
	ErrInvalidMessage   = errors.New("invalid message")
	ErrMessageMarshal   = errors.New("message marshal error")
	ErrMessageUnmarshal = errors.New("message unmarshal error")
	ErrArgument         = errors.New("argument error")
	ErrService          = errors.New("service error")
)
