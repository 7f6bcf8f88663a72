package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chessmahjong/common/config"
	"chessmahjong/common/database"
	"chessmahjong/common/discovery"
	"chessmahjong/common/log"
	infracache "chessmahjong/core/infrastructure/cache"
	"chessmahjong/core/infrastructure/message/node"
	"chessmahjong/core/infrastructure/message/transfer"
	"chessmahjong/game/share"
)

/*
	1.上报 etcd, 让撮合节点知晓本地的桌子数和性能情况
	2.监听来自 nats 的消息，处理逻辑
		(1)桌子管理对象
		(2)玩家到桌子的路由，收到局内对战消息，导航到正确的桌子
		(3)开局前，收到撮合节点的建桌通知（知道哪四个玩家同桌），建桌并分座
		(4)收到断线重连通知，给重连的玩家发送数据快照
	3.玩家游戏信息推送的消息总线
*/

type Worker struct {
	TableManager *TableManager
	MiddleWorker *node.NatsWorker
	Monitor      *Monitor
	Registry     *discovery.Registry
	RouteCache   *infracache.TableRouteCache // userID -> tableID，重连寻桌
	Redis        *database.RedisManager      // 在局状态标记，撮合节点靠它过滤重复入队
	NodeID       string                      // 当前 table 节点 ID（用于 NATS topic）

	destroyTableCh chan string
	destroyMu      sync.Mutex
	destroyClosed  bool
}

// NewWorker 创建 Worker
// nodeID: 当前 table 节点 ID（用于 NATS topic 和 etcd 注册）
func NewWorker(nodeID string) *Worker {
	tableManager := NewTableManager()
	registry := discovery.NewRegistry()
	monitor := NewMonitor(tableManager, registry, 5*time.Second) // 负载上报器

	routeCache, err := infracache.NewTableRouteCache()
	if err != nil {
		log.Fatal("创建桌子路由缓存失败: %v", err)
		return nil
	}

	worker := &Worker{
		TableManager:   tableManager,
		MiddleWorker:   node.NewNatsWorker(),
		Monitor:        monitor,
		Registry:       registry,
		RouteCache:     routeCache,
		NodeID:         nodeID,
		destroyTableCh: make(chan string, 128),
	}

	go worker.destroyTableLoop()

	return worker
}

// SetRedis 注入 Redis 连接（由容器注入）
func (w *Worker) SetRedis(redis *database.RedisManager) {
	w.Redis = redis
}

func (w *Worker) destroyTableLoop() {
	for tableID := range w.destroyTableCh {
		if tableID == "" {
			continue
		}

		if table, ok := w.TableManager.GetTable(tableID); ok {
			userIDs := table.GetAllUserIDs()
			w.RouteCache.DeleteBatch(userIDs)
			w.clearPlayingMarks(userIDs)
		}

		err := w.TableManager.DeleteTable(tableID)
		if err != nil {
			log.Warn("Worker destroyTableLoop 删除桌子失败: %v", err)
		}
	}
}

// RequestDestroyTable 引擎结束后异步请求销毁桌子
func (w *Worker) RequestDestroyTable(tableID string) {
	if tableID == "" {
		return
	}

	w.destroyMu.Lock()
	if w.destroyClosed {
		w.destroyMu.Unlock()
		return
	}
	ch := w.destroyTableCh
	w.destroyMu.Unlock()

	select {
	case ch <- tableID:
	default:
		log.Warn("Worker RequestDestroyTable 队列已满, tableID=%s", tableID)
	}
}

// Start 启动 Worker
// natsURL: NATS 服务地址，如 "nats://localhost:4222"
// etcdConf: etcd 配置
func (w *Worker) Start(ctx context.Context, natsURL string, etcdConf config.EtcdConf) error {
	w.registerHandlers()
	err := w.Registry.Register(etcdConf, w.NodeID)
	if err != nil {
		return fmt.Errorf("注册到 etcd 失败: %v", err)
	}
	log.Info(fmt.Sprintf("Table Worker[%s] 注册到 etcd 成功", w.NodeID))

	err = w.MiddleWorker.Run(natsURL, w.NodeID)
	if err != nil {
		return fmt.Errorf("启动 NATS 监听失败: %v", err)
	}
	log.Info(fmt.Sprintf("Table Worker[%s] 启动 NATS 监听成功, topic: %s", w.NodeID, w.NodeID))

	go w.Monitor.Start(ctx)

	log.Info(fmt.Sprintf("Table Worker[%s] 启动成功", w.NodeID))
	return nil
}

// registerHandlers 注册消息处理器
func (w *Worker) registerHandlers() {
	handlers := make(node.SubscriberHandler)

	handlers[transfer.TableCreate] = w.handleTableCreate
	handlers[transfer.TableDiscard] = w.handleDiscard
	handlers[transfer.TableClaim] = w.handleClaim
	handlers[transfer.TablePass] = w.handlePass
	handlers[transfer.TableSelfAction] = w.handleSelfAction
	handlers[transfer.TableReconnect] = w.handleReconnect

	w.MiddleWorker.RegisterHandlers(handlers)
	log.Info("Table Worker 注册消息处理器完成")
}

// PushMessage 推送消息给指定的 connector 节点（由 Engine 使用）
func (w *Worker) PushMessage(packet *transfer.ServicePacket) error {
	if packet == nil || packet.Destination == "" {
		return transfer.ErrInvalidMessage
	}
	return w.MiddleWorker.PushMessage(packet)
}

// ==================== 消息处理器 ====================

// CreateTableRequest 撮合节点的建桌请求
type CreateTableRequest struct {
	Users      map[string]string `json:"users"` // userID -> connector 节点 ID
	EngineType int32             `json:"engineType"`
}

// CreateTableResponse 建桌响应
type CreateTableResponse struct {
	TableID string `json:"tableID"`
	Error   string `json:"error,omitempty"`
}

func (w *Worker) handleTableCreate(message []byte) any {
	var req CreateTableRequest
	if err := json.Unmarshal(message, &req); err != nil {
		log.Warn("建桌请求解析失败: %v", err)
		return &CreateTableResponse{Error: transfer.ErrInvalidMessage.Error()}
	}

	table, err := w.TableManager.CreateTable(req.Users, req.EngineType)
	if err != nil {
		log.Error("建桌失败: %v", err)
		return &CreateTableResponse{Error: err.Error()}
	}

	// 记录路由和在局标记，供重连与撮合过滤使用
	for userID := range req.Users {
		w.RouteCache.Set(userID, table.ID)
	}
	w.markPlaying(table)

	return &CreateTableResponse{TableID: table.ID}
}

func (w *Worker) handleDiscard(message []byte) any {
	event := &share.DiscardTileEvent{}
	if err := json.Unmarshal(message, event); err != nil {
		log.Warn("出牌消息解析失败: %v", err)
		return nil
	}
	w.dispatchToTable(event)
	return nil
}

// ClaimRequest 响应窗口内的宣告请求
type ClaimRequest struct {
	UserID    string `json:"userID"`
	ClaimType string `json:"claimType"` // HU / GANG / PENG / CHI
}

func (w *Worker) handleClaim(message []byte) any {
	var req ClaimRequest
	if err := json.Unmarshal(message, &req); err != nil {
		log.Warn("响应宣告消息解析失败: %v", err)
		return nil
	}

	base := share.GameMessageEvent{UserID: req.UserID}
	var event share.GameEvent
	switch req.ClaimType {
	case "HU":
		event = &share.HuClaimEvent{GameMessageEvent: base}
	case "GANG":
		event = &share.GangClaimEvent{GameMessageEvent: base}
	case "PENG":
		event = &share.PengClaimEvent{GameMessageEvent: base}
	case "CHI":
		event = &share.ChiClaimEvent{GameMessageEvent: base}
	default:
		log.Warn("未知的宣告类型: %s", req.ClaimType)
		return nil
	}
	w.dispatchToTable(event)
	return nil
}

func (w *Worker) handlePass(message []byte) any {
	event := &share.PassEvent{}
	if err := json.Unmarshal(message, event); err != nil {
		log.Warn("过牌消息解析失败: %v", err)
		return nil
	}
	w.dispatchToTable(event)
	return nil
}

// SelfActionRequest 自己回合的主动操作
type SelfActionRequest struct {
	UserID     string     `json:"userID"`
	ActionType string     `json:"actionType"` // SELF_HU / ANKAN / KAKAN
	Tile       share.Tile `json:"tile"`
}

func (w *Worker) handleSelfAction(message []byte) any {
	var req SelfActionRequest
	if err := json.Unmarshal(message, &req); err != nil {
		log.Warn("主动操作消息解析失败: %v", err)
		return nil
	}

	base := share.GameMessageEvent{UserID: req.UserID}
	var event share.GameEvent
	switch req.ActionType {
	case "SELF_HU":
		event = &share.SelfHuEvent{GameMessageEvent: base}
	case "ANKAN":
		event = &share.ConcealedQuadEvent{GameMessageEvent: base, Tile: req.Tile}
	case "KAKAN":
		event = &share.QuadUpgradeEvent{GameMessageEvent: base, Tile: req.Tile}
	default:
		log.Warn("未知的主动操作类型: %s", req.ActionType)
		return nil
	}
	w.dispatchToTable(event)
	return nil
}

// ReconnectRequest 断线重连请求
type ReconnectRequest struct {
	UserID          string `json:"userID"`
	ConnectorNodeID string `json:"connectorNodeID"` // 重连后的新 connector 节点
}

func (w *Worker) handleReconnect(message []byte) any {
	var req ReconnectRequest
	if err := json.Unmarshal(message, &req); err != nil {
		log.Warn("重连消息解析失败: %v", err)
		return nil
	}

	// 本地缓存没有路由说明玩家不在本节点的任何桌上
	if _, ok := w.RouteCache.Get(req.UserID); !ok {
		log.Warn("重连玩家 %s 没有桌子路由", req.UserID)
		return nil
	}

	if err := w.TableManager.UpdatePlayerConnector(req.UserID, req.ConnectorNodeID); err != nil {
		log.Warn("更新重连玩家 %s 的 connector 失败: %v", req.UserID, err)
		return nil
	}

	w.dispatchToTable(&share.ReconnectEvent{GameMessageEvent: share.GameMessageEvent{UserID: req.UserID}})
	return nil
}

// dispatchToTable 按玩家路由把事件投递到对应桌子的引擎
func (w *Worker) dispatchToTable(event share.GameEvent) {
	table, exists := w.TableManager.GetPlayerTable(event.GetUserID())
	if !exists {
		log.Warn("玩家 %s 不在任何桌子中, event=%s", event.GetUserID(), event.GetEventType())
		return
	}
	if table.Engine == nil {
		log.Warn("桌子 %s 引擎已释放, event=%s", table.ID, event.GetEventType())
		return
	}
	table.Engine.NotifyEvent(event)
}

// ==================== 在局标记 ====================

// markPlaying 在 Redis 打上在局标记
// 撮合节点入队前检查这个 key，避免在局玩家重复匹配
func (w *Worker) markPlaying(table *Table) {
	if w.Redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for _, userID := range table.GetAllUserIDs() {
		key := fmt.Sprintf("playing:%s", userID)
		if err := w.Redis.Set(ctx, key, table.ID, 2*time.Hour); err != nil {
			log.Warn("写入在局标记失败: userID=%s, %v", userID, err)
		}
	}
}

func (w *Worker) clearPlayingMarks(userIDs []string) {
	if w.Redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for _, userID := range userIDs {
		key := fmt.Sprintf("playing:%s", userID)
		if err := w.Redis.Del(ctx, key); err != nil {
			log.Warn("清理在局标记失败: userID=%s, %v", userID, err)
		}
	}
}

// Close 关闭 Worker
func (w *Worker) Close() {
	w.destroyMu.Lock()
	if !w.destroyClosed {
		close(w.destroyTableCh)
		w.destroyClosed = true
	}
	w.destroyMu.Unlock()

	if w.Monitor != nil {
		w.Monitor.Stop()
	}
	if w.Registry != nil {
		w.Registry.Close()
	}
	if w.MiddleWorker != nil {
		w.MiddleWorker.Close()
	}
	if w.RouteCache != nil {
		w.RouteCache.Close()
	}
	log.Info(fmt.Sprintf("Table Worker[%s] 已关闭", w.NodeID))
}
