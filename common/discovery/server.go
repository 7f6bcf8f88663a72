package discovery

import (
	"encoding/json"
	"fmt"
)

// Server etcd 里登记的一条节点信息，value 以 json 存取
type Server struct {
	Domain  string  `json:"domain"`
	NodeID  string  `json:"nodeID"`
	Addr    string  `json:"addr"`
	Weight  int     `json:"weight"`
	Version string  `json:"version"`
	Ttl     int     `json:"ttl"`
	Load    float64 `json:"load"` // 负载评分，值越小越空闲
}

func (s Server) buildKey() string {
	return fmt.Sprintf("/server/%s/%s", s.Domain, s.NodeID)
}

// ParseValue 解析 etcd 里存的节点 json
func ParseValue(value []byte) (Server, error) {
	var s Server
	if err := json.Unmarshal(value, &s); err != nil {
		return s, err
	}
	return s, nil
}
