package question

import (
	"context"
	"os"
	"testing"
	"time"

	"gedquiz/internal/db"
)

func TestRedisCacheIntegration(t *testing.T) {
	addr := os.Getenv("GEDQUIZ_TEST_REDIS_ADDR")
	if os.Getenv("GEDQUIZ_INTEGRATION") != "1" || addr == "" {
		t.Skip("set GEDQUIZ_INTEGRATION=1 and GEDQUIZ_TEST_REDIS_ADDR to run redis tests")
	}
	ctx := context.Background()
	client, err := db.OpenRedis(ctx, db.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer client.Close()

	cache := NewRedisCache(client, "gedquiz-test:")
	key := "exams:" + time.Now().Format("150405.000000")
	defer client.Del(ctx, "gedquiz-test:"+key)

	var got []Exam
	found, err := cache.Get(ctx, key, &got)
	if err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	want := []Exam{{Year: 2024, Round: 1, QuestionCount: 25}}
	if err := cache.Set(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	found, err = cache.Get(ctx, key, &got)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
