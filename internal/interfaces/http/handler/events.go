package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/interfaces/http/dto"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 64
)

// originChecker 浏览器升级请求不受 CORS 约束，按 security.cors.allowed_origins 校验来源
// 未配置或包含 * 时放行全部；非浏览器客户端不带 Origin，直接放行
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.ContainsFunc(allowed, func(o string) bool {
			return strings.EqualFold(strings.TrimSuffix(o, "/"), origin)
		})
	}
}

type wsClient struct {
	novelID string
	send    chan []byte
	once    sync.Once
}

func (cl *wsClient) close() {
	cl.once.Do(func() { close(cl.send) })
}

// EventHub 把书库变更按作品分发给 WebSocket 连接
type EventHub struct {
	mu          sync.RWMutex
	clients     map[string]map[*wsClient]struct{}
	unsubscribe func()
}

// NewEventHub 创建并订阅书库变更
func NewEventHub(store *library.Store) *EventHub {
	h := &EventHub{clients: make(map[string]map[*wsClient]struct{})}
	h.unsubscribe = store.Subscribe(h.OnChange)
	return h
}

// OnChange 书库订阅回调；慢连接的缓冲满时丢弃该条事件
func (h *EventHub) OnChange(c library.Change) {
	if c.NovelID == "" {
		return
	}
	msg, err := json.Marshal(dto.ChangeEvent{
		Type:      string(c.Kind),
		NovelID:   c.NovelID,
		ChapterID: c.ChapterID,
		At:        c.At.UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients[c.NovelID] {
		select {
		case cl.send <- msg:
		default:
		}
	}
}

func (h *EventHub) register(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[cl.novelID] == nil {
		h.clients[cl.novelID] = make(map[*wsClient]struct{})
	}
	h.clients[cl.novelID][cl] = struct{}{}
	metrics.WebsocketClients.Inc()
}

func (h *EventHub) unregister(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[cl.novelID]
	if _, ok := set[cl]; !ok {
		return
	}
	delete(set, cl)
	if len(set) == 0 {
		delete(h.clients, cl.novelID)
	}
	cl.close()
	metrics.WebsocketClients.Dec()
}

// Clients 当前连接数
func (h *EventHub) Clients(novelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[novelID])
}

// Close 取消订阅并断开所有连接
func (h *EventHub) Close() {
	h.unsubscribe()
	h.mu.Lock()
	defer h.mu.Unlock()
	for novelID, set := range h.clients {
		for cl := range set {
			cl.close()
			metrics.WebsocketClients.Dec()
		}
		delete(h.clients, novelID)
	}
}

// EventHandler 作品变更推送处理器
type EventHandler struct {
	hub      *EventHub
	libs     *library.Service
	upgrader websocket.Upgrader
}

// NewEventHandler 创建变更推送处理器
func NewEventHandler(cfg *config.Config, hub *EventHub, libs *library.Service) *EventHandler {
	return &EventHandler{
		hub:  hub,
		libs: libs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.Security.CORS.AllowedOrigins),
		},
	}
}

// Subscribe 订阅作品变更
// @Summary 订阅作品变更
// @Description 升级为 WebSocket，推送 {type, novelId, chapterId, at}
// @Tags Novels
// @Param nid path string true "作品 ID"
// @Router /v1/novels/{nid}/events [get]
func (h *EventHandler) Subscribe(c *gin.Context) {
	nid := dto.BindNovelID(c)
	if _, err := h.libs.GetNovel(c.Request.Context(), nid); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}
	ctx := logger.WithContext(c.Request.Context(), logger.NovelIDKey, nid)
	logger.Debug(ctx, "event subscriber connected")

	cl := &wsClient{novelID: nid, send: make(chan []byte, wsSendBuffer)}
	h.hub.register(cl)

	go writePump(conn, cl)
	readPump(conn)

	h.hub.unregister(cl)
	logger.Debug(ctx, "event subscriber disconnected")
}

// readPump 只处理控制帧，客户端消息一律忽略
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, cl *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
