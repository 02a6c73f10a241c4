package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"txtsplit/pkg/contract"
)

// BenchmarkWrite 不同分片尺寸、覆盖/原子两种模式下的写入开销。
func BenchmarkWrite(b *testing.B) {
	for _, atomic := range []bool{false, true} {
		for _, sz := range []int{1024, 1024 * 1024} {
			b.Run(fmt.Sprintf("atomic=%v/size=%d", atomic, sz), func(b *testing.B) {
				data := bytes.Repeat([]byte("行\n"), sz/4)
				a := atomic
				w, err := New(&Options{OutputDir: b.TempDir(), Atomic: &a})
				if err != nil {
					b.Fatalf("创建 Writer 失败: %v", err)
				}
				id := contract.ArtifactID("bench_part1.txt")
				ctx := context.Background()
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := w.Write(ctx, id, bytes.NewReader(data)); err != nil {
						b.Fatalf("写入失败: %v", err)
					}
				}
			})
		}
	}
}
