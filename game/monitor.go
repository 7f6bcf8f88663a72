package game

import (
	"context"
	"fmt"
	"time"

	"chessmahjong/common/discovery"
	"chessmahjong/common/log"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Monitor 监控器
// 负责收集负载信息并上报给 etcd
type Monitor struct {
	tableManager   *TableManager
	registry       *discovery.Registry
	updateInterval time.Duration
	stopCh         chan struct{}
}

// NewMonitor 创建监控器
// tableManager: 桌子管理器，用于获取桌子数和玩家数
// registry: 服务注册器，用于上报负载信息
// updateInterval: 更新间隔（建议 5-10 秒）
func NewMonitor(tableManager *TableManager, registry *discovery.Registry, updateInterval time.Duration) *Monitor {
	return &Monitor{
		tableManager:   tableManager,
		registry:       registry,
		updateInterval: updateInterval,
		stopCh:         make(chan struct{}),
	}
}

// Start 启动监控器
// 在独立的 goroutine 中定期收集负载信息并上报
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	// 立即执行一次
	m.reportLoad()

	for {
		select {
		case <-ctx.Done():
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-m.stopCh:
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-ticker.C:
			m.reportLoad()
		}
	}
}

// Stop 停止监控器
func (m *Monitor) Stop() {
	close(m.stopCh)
}

// reportLoad 收集负载信息并上报
func (m *Monitor) reportLoad() {
	loadInfo := m.collectLoadInfo()
	load := loadInfo.CalculateLoad()

	err := m.registry.UpdateLoad(load)
	if err != nil {
		log.Error(fmt.Sprintf("Monitor 上报负载信息失败: %v", err))
	} else {
		log.Info(fmt.Sprintf("Monitor 上报负载信息成功: Load=%.2f, Games=%d, Players=%d, CPU=%.2f%%, Mem=%.2f%%",
			load, loadInfo.GameCount, loadInfo.PlayerCount, loadInfo.CPUUsage, loadInfo.MemUsage))
	}
}

// collectLoadInfo 收集负载信息
func (m *Monitor) collectLoadInfo() *LoadInfo {
	gameCount, playerCount := m.tableManager.GetStats()

	return &LoadInfo{
		GameCount:   gameCount,
		PlayerCount: playerCount,
		CPUUsage:    m.getCPUUsage(),
		MemUsage:    m.getMemoryUsage(),
	}
}

// getCPUUsage 获取系统 CPU 使用率
// interval 为 0 表示和上一次采样之间做差分，不阻塞上报循环
func (m *Monitor) getCPUUsage() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		log.Warn("Monitor 获取 CPU 使用率失败: %v", err)
		return 0.0
	}
	return percents[0]
}

// getMemoryUsage 获取系统内存使用率
func (m *Monitor) getMemoryUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("Monitor 获取内存使用率失败: %v", err)
		return 0.0
	}
	return vm.UsedPercent
}
