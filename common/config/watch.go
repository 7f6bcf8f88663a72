package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"chessmahjong/common/log"
)

// WatchConfig 监听配置文件变更并热加载
// 编辑器保存往往是 rename+create，所以监听的是所在目录
// 已经建好的桌子沿用旧参数，新桌子用新参数
func WatchConfig(configFile string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configFile)
	target := filepath.Clean(configFile)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := Load(configFile); err != nil {
					log.Warn("配置热加载失败: %v", err)
					continue
				}
				log.Info("配置已热加载: %s", configFile)
				if onChange != nil {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("配置监听异常: %v", err)
			}
		}
	}()

	return nil
}
