package log

import "testing"

func TestLogUsableWithoutInit(t *testing.T) {
	// 没跑 InitLog 也不能炸，仲裁器在迟到/重复提交的路径上直接打告警
	Info("plain message")
	Warn("formatted %d", 42)
	Error("error: %v", "boom")
	Debug("debug %s", "x")
}

func TestInitLogReconfigures(t *testing.T) {
	InitLog("table-test", "debug")
	Debug("debug after init")
	InitLog("table-test", "")
	Info("info after default level")
}
