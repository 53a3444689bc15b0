package model

// OutlineItem 单章大纲
type OutlineItem struct {
	Title   string `json:"title"`
	Outline string `json:"outline"`
}

// CharacterItem 模型返回的角色
type CharacterItem struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// NovelOutlineInput 开书架构输入
type NovelOutlineInput struct {
	LLMOptions

	Title         string
	Genre         string
	Premise       string
	TotalChapters int
	// Count 首批大纲章数，调用方已按上限截断
	Count    int
	Coverage float64
}

// NovelOutlineOutput 开书架构输出
type NovelOutlineOutput struct {
	Characters []CharacterItem `json:"characters"`
	Chapters   []OutlineItem   `json:"chapters"`
}

// BatchOutlineInput 批量大纲输入
type BatchOutlineInput struct {
	LLMOptions

	NovelContext   string
	Preceding      string
	Count          int
	StartNumber    int
	TargetCoverage float64
	Direction      string
}

// SingleOutlineInput 续写单章大纲输入
type SingleOutlineInput struct {
	LLMOptions

	NovelContext string
	Direction    string
	NextNumber   int
}
