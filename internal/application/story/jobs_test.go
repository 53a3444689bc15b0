package story

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/internal/infrastructure/persistence/memory"
	apperrors "wenshu-novel-api/pkg/errors"
)

func waitJobs(t *testing.T, r interface{ Wait(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestJobRunnerRejectsSecondJobForNovel(t *testing.T) {
	runner := NewJobRunner(memory.NewJobRepository())
	release := make(chan struct{})
	ctx := context.Background()

	first, err := runner.Start(ctx, "novel-1", entity.JobTypeOutlineBatch, func(ctx context.Context, report ProgressFunc) (any, error) {
		<-release
		report.emit(entity.NewProgress(1, 1, "done"))
		return map[string]int{"generated": 1}, nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = runner.Start(ctx, "novel-1", entity.JobTypeContentBatch, func(context.Context, ProgressFunc) (any, error) {
		return nil, nil
	})
	if !errors.Is(err, apperrors.ErrJobRunning) {
		t.Fatalf("second Start err = %v, want ErrJobRunning", err)
	}

	other, err := runner.Start(ctx, "novel-2", entity.JobTypeContentBatch, func(context.Context, ProgressFunc) (any, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Start for other novel: %v", err)
	}

	close(release)
	waitJobs(t, runner)

	got, err := runner.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != entity.JobStatusCompleted || got.Progress.Percent != 100 {
		t.Fatalf("job = %s %+v, want completed at 100%%", got.Status, got.Progress)
	}
	var result map[string]int
	if err := json.Unmarshal(got.Result, &result); err != nil || result["generated"] != 1 {
		t.Fatalf("result = %s (%v)", got.Result, err)
	}
	if o, _ := runner.Get(ctx, other.ID); o.Status != entity.JobStatusCompleted {
		t.Fatalf("other job status = %s, want completed", o.Status)
	}
}

func TestJobRunnerMarksPartialFailure(t *testing.T) {
	runner := NewJobRunner(memory.NewJobRepository())
	ctx := context.Background()

	job, err := runner.Start(ctx, "novel-1", entity.JobTypeOutlineBatch, func(context.Context, ProgressFunc) (any, error) {
		return BatchOutlineResult{Requested: 30, Generated: 15, Err: errors.New("upstream 500")}, nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitJobs(t, runner)

	got, _ := runner.Get(ctx, job.ID)
	if got.Status != entity.JobStatusFailed || got.Error != "upstream 500" {
		t.Fatalf("job = %s %q, want failed with upstream error", got.Status, got.Error)
	}
	var res BatchOutlineResult
	if err := json.Unmarshal(got.Result, &res); err != nil || res.Generated != 15 {
		t.Fatalf("result = %s (%v), want generated 15", got.Result, err)
	}
}

func TestJobRunnerRecoversPanic(t *testing.T) {
	runner := NewJobRunner(memory.NewJobRepository())
	ctx := context.Background()

	job, err := runner.Start(ctx, "novel-1", entity.JobTypeContentBatch, func(context.Context, ProgressFunc) (any, error) {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitJobs(t, runner)

	if got, _ := runner.Get(ctx, job.ID); got.Status != entity.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
}

func TestJobSurvivesRequestCancellation(t *testing.T) {
	runner := NewJobRunner(memory.NewJobRepository())
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	job, err := runner.Start(ctx, "novel-1", entity.JobTypeOutlineBatch, func(jobCtx context.Context, _ ProgressFunc) (any, error) {
		<-started
		return nil, jobCtx.Err()
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	close(started)
	waitJobs(t, runner)

	if got, _ := runner.Get(context.Background(), job.ID); got.Status != entity.JobStatusCompleted {
		t.Fatalf("status = %s (%s), want completed", got.Status, got.Error)
	}
}

func TestSetupCreatesNovelAndContinuesInBackground(t *testing.T) {
	store := library.NewStore(nil)
	gen := &fakeGenerator{
		novelOutline: &NovelOutline{
			Characters: []entity.Character{{Name: "林默", Role: "主角", Description: "外门弟子"}},
			Chapters: []Outline{
				{Title: "入山", Outline: "林默拜入宗门"},
				{Title: "试炼", Outline: "外门试炼"},
				{Title: "奇遇", Outline: "得到残卷"},
			},
		},
	}
	svc := newTestService(store, gen)

	res, err := svc.Setup(context.Background(), SetupRequest{
		Title:         "问道",
		Genre:         entity.GenreXianxia,
		Premise:       "少年问道",
		TotalChapters: 10,
		Coverage:      50,
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if len(res.Novel.Chapters) != 3 || len(res.Novel.Characters) != 1 {
		t.Fatalf("novel = %d chapters %d characters, want 3/1", len(res.Novel.Chapters), len(res.Novel.Characters))
	}
	if res.Novel.Coverage() != 15 {
		t.Fatalf("initial coverage = %v, want 15", res.Novel.Coverage())
	}
	if res.Job == nil || res.Job.Type != entity.JobTypeNovelSetup {
		t.Fatalf("job = %+v, want novel_setup job", res.Job)
	}
	waitJobs(t, svc)

	got := mustGet(t, store, res.Novel.ID)
	if len(got.Chapters) != 10 {
		t.Fatalf("chapters = %d, want 10", len(got.Chapters))
	}
	if got.Chapters[2].Title != "奇遇" || got.Chapters[3].Title != "b1-1" {
		t.Fatalf("titles = %v", chapterTitles(got))
	}
	if got.Coverage() != 50 {
		t.Fatalf("coverage = %v, want 50", got.Coverage())
	}
	job, _ := svc.Job(context.Background(), res.Job.ID)
	if job.Status != entity.JobStatusCompleted {
		t.Fatalf("job status = %s (%s), want completed", job.Status, job.Error)
	}
}

func TestSetupWithoutRemainingChaptersSkipsJob(t *testing.T) {
	store := library.NewStore(nil)
	gen := &fakeGenerator{
		novelOutline: &NovelOutline{Chapters: []Outline{{Title: "一", Outline: "a"}, {Title: "二", Outline: "b"}}},
	}
	svc := newTestService(store, gen)

	res, err := svc.Setup(context.Background(), SetupRequest{Title: "短篇", Genre: entity.GenreMystery, TotalChapters: 2})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if res.Job != nil {
		t.Fatalf("job = %+v, want nil", res.Job)
	}
	if res.Novel.Coverage() != 100 {
		t.Fatalf("coverage = %v, want 100", res.Novel.Coverage())
	}
}

func TestSetupValidation(t *testing.T) {
	svc := newTestService(library.NewStore(nil), &fakeGenerator{})
	tests := []SetupRequest{
		{Title: "", Genre: entity.GenreUrban, TotalChapters: 5},
		{Title: "x", Genre: "western", TotalChapters: 5},
		{Title: "x", Genre: entity.GenreUrban, TotalChapters: 0},
	}
	for _, req := range tests {
		if _, err := svc.Setup(context.Background(), req); !errors.Is(err, apperrors.ErrInvalidParam) {
			t.Fatalf("Setup(%+v) err = %v, want ErrInvalidParam", req, err)
		}
	}
}

func TestContinueOutlineAppendsDraft(t *testing.T) {
	store := library.NewStore(nil)
	novel := seedNovel(t, store, "一", "二")
	gen := &fakeGenerator{single: &Outline{Title: "三", Outline: "续写细纲"}}
	svc := newTestService(store, gen)

	ch, err := svc.ContinueOutline(context.Background(), novel.ID, "")
	if err != nil {
		t.Fatalf("ContinueOutline: %v", err)
	}
	got := mustGet(t, store, novel.ID)
	last := got.Chapters[len(got.Chapters)-1]
	if last.ID != ch.ID || last.Title != "三" || last.Status != entity.ChapterStatusDraft {
		t.Fatalf("last chapter = %+v", last)
	}
}

func TestBrainstormRequiresKnownChapter(t *testing.T) {
	store := library.NewStore(nil)
	novel := seedNovel(t, store, "一")
	svc := newTestService(store, &fakeGenerator{brainstorm: "让反派提前登场"})

	if _, err := svc.Brainstorm(context.Background(), novel.ID, "chap-missing", "怎么写", ""); !errors.Is(err, apperrors.ErrChapterNotFound) {
		t.Fatalf("err = %v, want ErrChapterNotFound", err)
	}
	text, err := svc.Brainstorm(context.Background(), novel.ID, novel.Chapters[0].ID, "怎么写", "")
	if err != nil || text != "让反派提前登场" {
		t.Fatalf("Brainstorm = %q, %v", text, err)
	}
}
