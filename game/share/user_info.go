package share

// UserInfo 桌内玩家的路由与在线状态
// 引擎只关心座位号，连接节点用于推送寻址
type UserInfo struct {
	UserID          string
	ConnectorNodeID string // 玩家当前连接的 connector 节点
	IsOnline        bool
	SeatIndex       int // 0~3，建桌时分配
}

func NewUserInfo(userID, connectorNodeID string) *UserInfo {
	return &UserInfo{
		UserID:          userID,
		ConnectorNodeID: connectorNodeID,
		IsOnline:        true,
		SeatIndex:       -1,
	}
}

// SetOffline 掉线，连接节点信息保留用于重连校验
func (u *UserInfo) SetOffline() {
	u.IsOnline = false
}

// SetOnline 重连成功后更新连接节点
func (u *UserInfo) SetOnline(connectorNodeID string) {
	u.IsOnline = true
	u.ConnectorNodeID = connectorNodeID
}
