package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/internal/infrastructure/persistence/memory"
	"wenshu-novel-api/internal/infrastructure/persistence/redis"
	"wenshu-novel-api/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	chunks     []string
	contentErr error
}

func (g *stubGenerator) GenerateNovelOutline(_ context.Context, req story.NovelOutlineRequest) (*story.NovelOutline, error) {
	return &story.NovelOutline{
		Characters: []entity.Character{{Name: "林舟", Role: "主角"}},
		Chapters:   []story.Outline{{Title: "初入江湖", Outline: "少年下山"}},
	}, nil
}

func (g *stubGenerator) GenerateBatchOutlines(_ context.Context, _ *entity.Novel, batchSize int, _, _ string, _ float64) ([]story.Outline, error) {
	out := make([]story.Outline, batchSize)
	for i := range out {
		out[i] = story.Outline{Title: fmt.Sprintf("批量%d", i+1), Outline: "推进主线"}
	}
	return out, nil
}

func (g *stubGenerator) GenerateSingleChapterOutline(_ context.Context, _ *entity.Novel, _ string) (*story.Outline, error) {
	return &story.Outline{Title: "续章", Outline: "承接上文"}, nil
}

func (g *stubGenerator) RefineChapterContent(_ context.Context, _ *entity.Novel, _, _ string, onChunk func(string)) (string, error) {
	var b strings.Builder
	for _, c := range g.chunks {
		onChunk(c)
		b.WriteString(c)
	}
	if g.contentErr != nil {
		return "", g.contentErr
	}
	return b.String(), nil
}

func (g *stubGenerator) BrainstormIdea(_ context.Context, _ *entity.Novel, _ *entity.Chapter, query, _ string) (string, error) {
	return "试试：" + query, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int, time.Duration) (redis.RateDecision, error) {
	return redis.RateDecision{RetryAfter: 1500 * time.Millisecond}, nil
}

type testEnv struct {
	router  *Router
	store   *library.Store
	stories *story.Service
	hub     *handler.EventHub
}

func newTestEnv(t *testing.T, gen *stubGenerator, checks map[string]handler.HealthCheck, limited bool) *testEnv {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Name: "wenshu-test", Env: "test"},
		LLM: config.LLMConfig{
			DefaultProvider: "default",
			Providers:       map[string]config.ProviderConfig{"default": {Model: "stub-model"}},
		},
	}

	store := library.NewStore(nil)
	libs := library.NewService(store)
	stories := story.NewService(
		libs,
		gen,
		story.NewOutlineSequencer(store, gen, 15, 0),
		story.NewContentSequencer(store, gen, 0),
		story.NewJobRunner(memory.NewJobRepository()),
	)
	hub := handler.NewEventHub(store)
	t.Cleanup(hub.Close)

	h := RouterHandlers{
		Health:     handler.NewHealthHandler("test", []string{"default"}, checks),
		Novel:      handler.NewNovelHandler(cfg, libs, stories),
		Chapter:    handler.NewChapterHandler(libs),
		Stream:     handler.NewStreamHandler(cfg, stories),
		Generation: handler.NewGenerationHandler(cfg, stories),
		Job:        handler.NewJobHandler(stories),
		Export:     handler.NewExportHandler(libs),
		Event:      handler.NewEventHandler(cfg, hub, libs),
	}
	var r *Router
	if limited {
		cfg.Security.RateLimit.Enabled = true
		r = NewWithDeps(cfg, h, denyLimiter{})
	} else {
		r = NewWithDeps(cfg, h, nil)
	}
	return &testEnv{router: r, store: store, stories: stories, hub: hub}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		ErrorCode string `json:"error_code"`
		Details   string `json:"details"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.Engine().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func (e *testEnv) createNovel(t *testing.T) *entity.Novel {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/v1/novels", map[string]any{
		"title":   "长夜行",
		"premise": "一个关于守夜人的故事",
		"genre":   string(entity.GenreXianxia),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var n entity.Novel
	if err := json.Unmarshal(env.Data, &n); err != nil {
		t.Fatal(err)
	}
	return &n
}

func TestCreateAndListNovels(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	n := env.createNovel(t)
	if len(n.Chapters) != 1 || n.Chapters[0].Title != entity.DefaultChapterTitle {
		t.Fatalf("chapters = %+v, want one %q", n.Chapters, entity.DefaultChapterTitle)
	}

	w, resp := env.do(t, http.MethodGet, "/v1/novels", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Novels []struct {
			ID           string `json:"id"`
			ChapterCount int    `json:"chapterCount"`
		} `json:"novels"`
	}
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Novels) != 1 || list.Novels[0].ID != n.ID || list.Novels[0].ChapterCount != 1 {
		t.Fatalf("list = %+v", list.Novels)
	}
}

func TestUnknownNovelReturnsNotFound(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	w, resp := env.do(t, http.MethodGet, "/v1/novels/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp.Error == nil || resp.Error.ErrorCode != "3001" {
		t.Fatalf("error = %+v, want error_code 3001", resp.Error)
	}
}

func TestDeleteLastChapterRejected(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	n := env.createNovel(t)

	w, resp := env.do(t, http.MethodDelete, "/v1/novels/"+n.ID+"/chapters/"+n.Chapters[0].ID, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp.Message != "至少保留一个章节。" {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestAddAndDeleteChapterReturnsAdjacent(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	n := env.createNovel(t)
	first := n.Chapters[0].ID

	w, resp := env.do(t, http.MethodPost, "/v1/novels/"+n.ID+"/chapters", map[string]string{"afterId": first})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d", w.Code)
	}
	var added entity.Chapter
	if err := json.Unmarshal(resp.Data, &added); err != nil {
		t.Fatal(err)
	}

	w, resp = env.do(t, http.MethodDelete, "/v1/novels/"+n.ID+"/chapters/"+first, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	var del struct {
		ActiveChapterID string `json:"activeChapterId"`
	}
	if err := json.Unmarshal(resp.Data, &del); err != nil {
		t.Fatal(err)
	}
	if del.ActiveChapterID != added.ID {
		t.Fatalf("active = %q, want %q", del.ActiveChapterID, added.ID)
	}
}

func TestGenerateEmptyOutlineRejectedBeforeStreaming(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{chunks: []string{"x"}}, nil, false)
	n := env.createNovel(t)

	w, resp := env.do(t, http.MethodPost, "/v1/novels/"+n.ID+"/chapters/"+n.Chapters[0].ID+"/generate", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.ErrorCode != "4002" {
		t.Fatalf("error = %+v, want 4002", resp.Error)
	}
}

func streamGenerate(t *testing.T, env *testEnv, n *entity.Novel) string {
	t.Helper()
	cid := n.Chapters[0].ID
	outline := "主角夜巡"
	if w, _ := env.do(t, http.MethodPut, "/v1/novels/"+n.ID+"/chapters/"+cid, map[string]*string{"outline": &outline}); w.Code != http.StatusOK {
		t.Fatalf("update outline status = %d", w.Code)
	}

	srv := httptest.NewServer(env.router.Engine())
	defer srv.Close()
	resp, err := http.Post(srv.URL+"/v1/novels/"+n.ID+"/chapters/"+cid+"/generate", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestGenerateStreamsContentAndDone(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{chunks: []string{"夜色", "如墨"}}, nil, false)
	n := env.createNovel(t)

	body := streamGenerate(t, env, n)
	if strings.Count(body, "event:content") != 2 {
		t.Fatalf("content events in %q, want 2", body)
	}
	if !strings.Contains(body, "event:done") {
		t.Fatalf("missing done event in %q", body)
	}

	got, _ := env.store.Get(n.ID)
	ch := got.Chapters[0]
	if ch.Content != "夜色如墨" || ch.Status != entity.ChapterStatusCompleted {
		t.Fatalf("chapter = %q/%s, want completed 夜色如墨", ch.Content, ch.Status)
	}
}

func TestGenerateFailureEmitsErrorEvent(t *testing.T) {
	gen := &stubGenerator{
		chunks:     []string{"半句"},
		contentErr: &story.GenerationFailure{Op: story.OpRefineContent, Err: errors.New("upstream 500")},
	}
	env := newTestEnv(t, gen, nil, false)
	n := env.createNovel(t)

	body := streamGenerate(t, env, n)
	if !strings.Contains(body, "event:error") || !strings.Contains(body, `"error_code":"4001"`) {
		t.Fatalf("body = %q, want error event with 4001", body)
	}
}

func TestExportMarkdownAttachment(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	n := env.createNovel(t)

	w, _ := env.do(t, http.MethodPost, "/v1/novels/"+n.ID+"/export", map[string]any{
		"chapterIds": []string{n.Chapters[0].ID},
		"format":     "md",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("content disposition = %q", cd)
	}
	want := "# 长夜行\n\n> 一个关于守夜人的故事\n\n---\n\n## 新章节\n\n(暂无内容)\n\n"
	if w.Body.String() != want {
		t.Fatalf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestExportEmptySelectionRejected(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	n := env.createNovel(t)

	w, _ := env.do(t, http.MethodPost, "/v1/novels/"+n.ID+"/export", map[string]any{"chapterIds": []string{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBatchOutlinesRunsAsJob(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	n := env.createNovel(t)

	w, resp := env.do(t, http.MethodPost, "/v1/novels/"+n.ID+"/outlines/batch", map[string]any{"total": 3})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var job entity.GenerationJob
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.stories.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	w, resp = env.do(t, http.MethodGet, "/v1/jobs/"+job.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("job status = %d", w.Code)
	}
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		t.Fatal(err)
	}
	if job.Status != entity.JobStatusCompleted {
		t.Fatalf("job status = %s, want completed (%s)", job.Status, job.Error)
	}
	got, _ := env.store.Get(n.ID)
	if len(got.Chapters) != 4 {
		t.Fatalf("chapters = %d, want 4", len(got.Chapters))
	}
}

func TestSetupReturnsAccepted(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	w, resp := env.do(t, http.MethodPost, "/v1/novels/setup", map[string]any{
		"title":         "星海",
		"genre":         string(entity.GenreSciFi),
		"totalChapters": 1,
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res story.SetupResult
	if err := json.Unmarshal(resp.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Novel == nil || len(res.Novel.Chapters) != 1 || res.Job != nil {
		t.Fatalf("result = %+v, want one chapter and no job", res)
	}
}

func TestRateLimitAppliesToGenerationRoutesOnly(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, true)
	n := env.createNovel(t)

	w, resp := env.do(t, http.MethodPost, "/v1/novels/"+n.ID+"/outlines/next", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if resp.Error == nil || resp.Error.ErrorCode != "1006" {
		t.Fatalf("error = %+v, want 1006", resp.Error)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q, want 2", got)
	}
}

func TestReadyReportsFailingCheck(t *testing.T) {
	checks := map[string]handler.HealthCheck{
		"storage": func(context.Context) error { return nil },
		"redis":   func(context.Context) error { return errors.New("connection refused") },
	}
	env := newTestEnv(t, &stubGenerator{}, checks, false)

	w, _ := env.do(t, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestEventsWebsocketPushesNovelChanges(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil, false)
	n := env.createNovel(t)

	srv := httptest.NewServer(env.router.Engine())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/novels/" + n.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Clients(n.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	title := "长夜行（修订）"
	if w, _ := env.do(t, http.MethodPut, "/v1/novels/"+n.ID, map[string]*string{"title": &title}); w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev struct {
		Type    string `json:"type"`
		NovelID string `json:"novelId"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != string(library.ChangeNovelUpdated) || ev.NovelID != n.ID {
		t.Fatalf("event = %+v", ev)
	}
}
