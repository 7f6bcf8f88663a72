package protocol

// MessageType 节点间消息的三种形态
type MessageType int

const (
	Request MessageType = iota + 1
	Response
	Push
)

// Message 节点间通信的消息体，Data 是路由对应的 json 负载
type Message struct {
	Type  MessageType `json:"type"`
	Route string      `json:"route"`
	Data  []byte      `json:"data"`
}
