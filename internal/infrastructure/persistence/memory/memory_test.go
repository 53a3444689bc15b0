package memory

import (
	"context"
	"errors"
	"testing"

	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
)

func TestLibraryRepositoryRoundTripIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewLibraryRepository()

	lib, err := repo.Load(ctx)
	if err != nil || lib != nil {
		t.Fatalf("Load on empty repo = (%v, %v), want (nil, nil)", lib, err)
	}

	n := entity.NewNovel("山海", "少年入山", entity.GenreXianxia)
	done := entity.NewChapter("第一章", "入山")
	done.Content = "云雾深处"
	done.Complete()
	n.Chapters = []entity.Chapter{done, entity.NewChapter("第二章", "拜师")}
	if err := repo.Save(ctx, &entity.Library{Novels: []*entity.Novel{n}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	n.Title = "changed"

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Novels) != 1 || got.Novels[0].Title != "山海" {
		t.Fatalf("loaded novels = %+v, want one titled 山海", got.Novels)
	}
	chapters := got.Novels[0].Chapters
	if len(chapters) != 2 || chapters[0].Status != entity.ChapterStatusCompleted || chapters[0].Content != "云雾深处" {
		t.Fatalf("completed chapter = %+v", chapters)
	}
	if chapters[1].Status != entity.ChapterStatusDraft || chapters[1].Content != "" {
		t.Fatalf("draft chapter = %+v", chapters[1])
	}
	if repo.Saves() != 1 {
		t.Fatalf("saves = %d, want 1", repo.Saves())
	}
}

func TestJobRepositoryActiveLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()

	if _, err := repo.GetByID(ctx, "job-missing"); !errors.Is(err, apperrors.ErrJobNotFound) {
		t.Fatalf("GetByID missing err = %v, want ErrJobNotFound", err)
	}

	job := entity.NewGenerationJob("novel-1", entity.JobTypeOutlineBatch)
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	active, _ := repo.FindActiveByNovel(ctx, "novel-1")
	if active == nil || active.ID != job.ID {
		t.Fatalf("active = %+v, want %s", active, job.ID)
	}

	job.Start()
	job.Complete(nil)
	if err := repo.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if active, _ := repo.FindActiveByNovel(ctx, "novel-1"); active != nil {
		t.Fatalf("active after completion = %+v, want nil", active)
	}

	jobs, _ := repo.ListByNovel(ctx, "novel-1")
	if len(jobs) != 1 || jobs[0].Status != entity.JobStatusCompleted {
		t.Fatalf("jobs = %+v, want one completed", jobs)
	}
}
