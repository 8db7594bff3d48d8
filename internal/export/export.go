// 包 export 把运行报告与旁路索引写为带缩进的 JSON 文件。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go-rover-gallery/internal/model"
)

// IndexSnapshot 为索引导出的顶层结构。
type IndexSnapshot struct {
	Count      int                 `json:"count"`
	ExportedAt time.Time           `json:"exported_at"`
	Images     []model.CachedImage `json:"images"`
}

// Lister 返回索引中的全部条目。
type Lister interface {
	List(ctx context.Context) ([]model.CachedImage, error)
}

// ToJSON 将运行报告写入 path。
func ToJSON(rep model.Report, path string) error {
	return writeJSON(path, rep)
}

// IndexToJSON 导出索引全部条目。
func IndexToJSON(ctx context.Context, idx Lister, path string) error {
	imgs, err := idx.List(ctx)
	if err != nil {
		return fmt.Errorf("list index: %w", err)
	}
	if imgs == nil {
		imgs = []model.CachedImage{}
	}
	return writeJSON(path, IndexSnapshot{Count: len(imgs), ExportedAt: time.Now(), Images: imgs})
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}
