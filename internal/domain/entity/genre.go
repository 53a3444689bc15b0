package entity

// Genre 作品题材
type Genre string

const (
	GenreXianxia    Genre = "玄幻/仙侠"
	GenreUrban      Genre = "都市/职场"
	GenreSciFi      Genre = "科幻/未来"
	GenreHistorical Genre = "历史/架空"
	GenreMystery    Genre = "悬疑/推理"
	GenreRomance    Genre = "言情/纯爱"
	GenreGaming     Genre = "网游/竞技"
	GenreNonfiction Genre = "硬核纪实/知识流"
)

var genres = []Genre{
	GenreXianxia,
	GenreUrban,
	GenreSciFi,
	GenreHistorical,
	GenreMystery,
	GenreRomance,
	GenreGaming,
	GenreNonfiction,
}

// Genres 返回全部题材，顺序固定
func Genres() []Genre {
	out := make([]Genre, len(genres))
	copy(out, genres)
	return out
}

// Valid 是否为已知题材
func (g Genre) Valid() bool {
	for _, v := range genres {
		if v == g {
			return true
		}
	}
	return false
}
