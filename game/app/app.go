package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessmahjong/common/config"
	"chessmahjong/common/log"
	"chessmahjong/core/container"
)

func Run(ctx context.Context) error {
	tableContainer := container.NewTableContainer()

	if tableContainer == nil {
		log.Fatal("桌子节点容器初始化失败")
		return nil
	}
	defer func() {
		if err := tableContainer.Close(); err != nil {
			log.Error("关闭桌子节点容器失败: %v", err)
		}
	}()

	go func() {
		err := tableContainer.TableWorker.Start(
			ctx,
			config.Conf.NatsConfig.URL,
			config.Conf.EtcdConf,
		)

		if err != nil {
			log.Fatal("worker 启动失败，err:%#v", err)
		}
	}()

	stop := func() {
		log.Info("正在关闭桌子节点...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan struct{})
		go func() {
			if err := tableContainer.Close(); err != nil {
				log.Warn("关闭桌子节点容器失败: %v", err)
			}
			close(done)
		}()

		select {
		case <-done:
			log.Info("桌子节点已关闭")
		case <-shutdownCtx.Done():
			log.Warn("关闭桌子节点超时（5秒），defer 会确保资源最终被释放")
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case s := <-c:
			switch s {
			case syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT:
				stop()
				log.Info("中断信号，服务停止")
				return nil
			case syscall.SIGHUP:
				stop()
				log.Info("挂起信号，服务停止")
				return nil
			default:
				return nil
			}
		}
	}
}
