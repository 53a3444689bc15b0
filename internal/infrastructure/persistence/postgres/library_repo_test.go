package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	gormlogger "gorm.io/gorm/logger"

	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/domain/entity"
)

func TestNewSnapshotCarriesNovelIDs(t *testing.T) {
	a := entity.NewNovel("甲", "", entity.GenreUrban)
	b := entity.NewNovel("乙", "", entity.GenreMystery)
	row, err := NewSnapshot("wenshu_library", &entity.Library{Novels: []*entity.Novel{a, b}})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	if len(row.NovelIDs) != 2 || row.NovelIDs[0] != a.ID || row.NovelIDs[1] != b.ID {
		t.Fatalf("novel ids = %v, want [%s %s]", row.NovelIDs, a.ID, b.ID)
	}
	var lib entity.Library
	if err := json.Unmarshal(row.Payload, &lib); err != nil || len(lib.Novels) != 2 {
		t.Fatalf("payload = %s (%v)", row.Payload, err)
	}
	if row.TableName() != "library_snapshots" {
		t.Fatalf("table = %q", row.TableName())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"ERROR":  gormlogger.Error,
		"info":   gormlogger.Info,
		"":       gormlogger.Warn,
		"warn":   gormlogger.Warn,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBuildDSN(t *testing.T) {
	cfg := &config.PostgresConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "wenshu",
		Password: "p@ss word's",
		Database: "wenshu",
	}
	want := `host=db.internal port=5432 user=wenshu password='p@ss word\'s' dbname=wenshu sslmode=disable application_name=wenshu-novel-api`
	if got := buildDSN(cfg); got != want {
		t.Fatalf("buildDSN = %q, want %q", got, want)
	}
}

func TestBuildDSNSkipsEmptyPassword(t *testing.T) {
	cfg := &config.PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", Database: "wenshu", SSLMode: "require"}
	got := buildDSN(cfg)
	if strings.Contains(got, "password=") {
		t.Fatalf("buildDSN = %q, want no password", got)
	}
	if !strings.Contains(got, "sslmode=require") {
		t.Fatalf("buildDSN = %q, want sslmode=require", got)
	}
}
