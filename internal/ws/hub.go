package ws

import (
	"sync"
)

// Hub 维护活跃的浏览器连接并按会话广播消息
type Hub struct {
	// 所有已注册的客户端
	clients map[*Client]bool

	// 会话对应的客户端集合 session -> Client -> bool
	rooms map[string]map[*Client]bool

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
}

// Event 推送给浏览器的广播事件
// 事件名固定为 new-message，前端按 session 过滤
type Event struct {
	Event   string `json:"event"`
	Session string `json:"session"`
	Message any    `json:"message"`
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if _, ok := h.rooms[client.session]; !ok {
				h.rooms[client.session] = make(map[*Client]bool)
			}
			h.rooms[client.session][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.drop(client)

		case event := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			if clients, ok := h.rooms[event.Session]; ok {
				for client := range clients {
					select {
					case client.send <- event:
					default:
						// 发送缓冲满说明客户端太慢，记下来踢出去
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()

			// 读锁下不能改 map，出锁后统一清理
			for _, client := range slow {
				h.drop(client)
			}
		}
	}
}

// drop 把客户端从 hub 和它所在的房间移除并关闭发送通道
// 同一个客户端重复 drop 是安全的
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	if room, ok := h.rooms[client.session]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.session)
		}
	}
}

// BroadcastToSession 向指定会话的所有在线客户端推送 new-message 事件
func (h *Hub) BroadcastToSession(session string, message any) {
	h.broadcast <- &Event{
		Event:   "new-message",
		Session: session,
		Message: message,
	}
}

// SessionViewers 返回某个会话当前的在线连接数（健康检查用）
func (h *Hub) SessionViewers(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[session])
}
