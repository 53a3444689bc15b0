package story

import (
	"context"
	"time"

	"wenshu-novel-api/internal/domain/entity"
)

// ProgressFunc 序列进度回调
type ProgressFunc func(p entity.Progress)

func (f ProgressFunc) emit(p entity.Progress) {
	if f != nil {
		f(p)
	}
}

// pause 节流等待，d <= 0 时立即返回
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
