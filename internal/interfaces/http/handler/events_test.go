package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/domain/entity"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"unconfigured", nil, "https://evil.example", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed", []string{"https://app.example/"}, "https://app.example", true},
		{"listed case", []string{"https://App.example"}, "https://app.example", true},
		{"not listed", []string{"https://app.example"}, "https://evil.example", false},
		{"no origin header", []string{"https://app.example"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := originChecker(tt.allowed)(r); got != tt.want {
				t.Fatalf("originChecker(%v)(%q) = %v, want %v", tt.allowed, tt.origin, got, tt.want)
			}
		})
	}
}

func TestSubscribeRejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := library.NewStore(nil)
	libs := library.NewService(store)
	n, err := libs.CreateNovel(context.Background(), library.CreateNovelInput{Title: "长夜", Genre: entity.GenreMystery})
	if err != nil {
		t.Fatalf("CreateNovel: %v", err)
	}
	hub := NewEventHub(store)
	defer hub.Close()

	cfg := &config.Config{}
	cfg.Security.CORS.AllowedOrigins = []string{"https://app.example"}
	e := gin.New()
	e.GET("/novels/:nid/events", NewEventHandler(cfg, hub, libs).Subscribe)
	srv := httptest.NewServer(e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/novels/" + n.ID + "/events"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("foreign origin upgraded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign origin response = %v, want 403", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://app.example"}})
	if err != nil {
		t.Fatalf("allowed origin dial: %v", err)
	}
	conn.Close()
}
