package metrics

import (
	"net/http"

	"github.com/arl/statsviz"
)

// Serve 在 addr 上暴露 statsviz 的运行时监控页面
func Serve(addr string) error {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return err
	}
	return http.ListenAndServe(addr, mux)
}
