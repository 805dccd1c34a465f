package feedstate

import (
	"context"
	"fmt"
	"testing"

	"digests-refresher/core/domain"
	"digests-refresher/infrastructure/cache/memory"
)

func benchMetadata(i int) domain.FeedMetadata {
	return domain.FeedMetadata{
		ContentHash: fmt.Sprintf("%016x", i),
		ConditionalGetInfo: &domain.ConditionalGetInfo{
			ETag:         fmt.Sprintf(`"v%d"`, i),
			LastModified: "Mon, 02 Jan 2006 15:04:05 GMT",
		},
	}
}

func benchURL(i int) string {
	return fmt.Sprintf("https://example.com/feeds/%d.xml", i)
}

func BenchmarkStore_Save(b *testing.B) {
	store := NewStore(memory.NewMemoryCache(), 0)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(ctx, benchURL(i%1000), benchMetadata(i))
	}
}

func BenchmarkStore_Load(b *testing.B) {
	store := NewStore(memory.NewMemoryCache(), 0)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		_ = store.Save(ctx, benchURL(i), benchMetadata(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load(ctx, benchURL(i%1000))
	}
}

// Restore over a catalog the size of a large subscription list
func BenchmarkStore_Restore(b *testing.B) {
	const catalogSize = 500
	store := NewStore(memory.NewMemoryCache(), 0)
	ctx := context.Background()
	for i := 0; i < catalogSize; i++ {
		_ = store.Save(ctx, benchURL(i), benchMetadata(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		feeds := make([]*domain.Feed, catalogSize)
		for j := range feeds {
			feeds[j] = &domain.Feed{URL: benchURL(j)}
		}
		b.StartTimer()

		_, _ = store.Restore(ctx, feeds)
	}
}

func BenchmarkStore_ConcurrentLoad(b *testing.B) {
	store := NewStore(memory.NewMemoryCache(), 0)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_ = store.Save(ctx, benchURL(i), benchMetadata(i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = store.Load(ctx, benchURL(i%100))
			i++
		}
	})
}
