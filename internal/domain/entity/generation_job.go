package entity

import (
	"encoding/json"
	"time"
)

// JobType 任务类型
type JobType string

const (
	JobTypeNovelSetup   JobType = "novel_setup"
	JobTypeOutlineBatch JobType = "outline_batch"
	JobTypeContentBatch JobType = "content_batch"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Progress 序列进度
type Progress struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Status  string  `json:"status"`
}

// NewProgress 按 current/total 计算百分比
func NewProgress(current, total int, status string) Progress {
	p := Progress{Current: current, Total: total, Status: status}
	if total > 0 {
		p.Percent = float64(current) / float64(total) * 100
	}
	return p
}

// GenerationJob 后台生成任务
type GenerationJob struct {
	ID          string          `json:"id"`
	NovelID     string          `json:"novelId"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	Progress    Progress        `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"durationMs,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// NewGenerationJob 创建新任务
func NewGenerationJob(novelID string, jobType JobType) *GenerationJob {
	now := time.Now()
	return &GenerationJob{
		ID:        NewJobID(),
		NovelID:   novelID,
		Type:      jobType,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start 开始执行任务
func (j *GenerationJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// Complete 完成任务
func (j *GenerationJob) Complete(result json.RawMessage) {
	j.finish(JobStatusCompleted)
	j.Result = result
}

// Fail 任务失败
func (j *GenerationJob) Fail(errMsg string, result json.RawMessage) {
	j.finish(JobStatusFailed)
	j.Error = errMsg
	j.Result = result
}

func (j *GenerationJob) finish(status JobStatus) {
	now := time.Now()
	j.Status = status
	j.CompletedAt = &now
	j.UpdatedAt = now
	if j.StartedAt != nil {
		j.DurationMs = now.Sub(*j.StartedAt).Milliseconds()
	}
}

// UpdateProgress 更新任务进度
func (j *GenerationJob) UpdateProgress(p Progress) {
	if p.Percent < 0 {
		p.Percent = 0
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
	j.Progress = p
	j.UpdatedAt = time.Now()
}

// IsActive 是否未结束
func (j *GenerationJob) IsActive() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusRunning
}

// Clone 拷贝
func (j *GenerationJob) Clone() *GenerationJob {
	cp := *j
	if j.Result != nil {
		cp.Result = append(json.RawMessage{}, j.Result...)
	}
	return &cp
}
