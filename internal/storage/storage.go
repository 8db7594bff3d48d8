// 包 storage 把本地缓存目录当作以文件名为键的 blob 存储，基于 gocloud.dev/blob。
// 默认使用 fileblob 指向 STORAGE.dir（不存在时自动创建）；配置 STORAGE.url 时可换成 mem/s3/gs 等驱动。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	"go-rover-gallery/internal/config"
)

// ErrNotFound 表示键不存在。
var ErrNotFound = errors.New("storage: not found")

// Store 包装 *blob.Bucket；同名写入直接覆盖，不同键之间无需加锁。
type Store struct {
	bucket *blob.Bucket
}

// Object 为列表项。
type Object struct {
	Key  string
	Size int64
}

// Open 按配置打开存储。
func Open(ctx context.Context, cfg config.Storage) (*Store, error) {
	if cfg.URL != "" {
		b, err := blob.OpenBucket(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open bucket %s: %w", cfg.URL, err)
		}
		return New(b), nil
	}
	return OpenDir(cfg.Dir)
}

// OpenDir 打开本地目录，必要时创建。
func OpenDir(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", abs, err)
	}
	// 不写 .attrs 旁路文件：目录里只保留图片本身
	b, err := fileblob.OpenBucket(abs, &fileblob.Options{
		CreateDir: true,
		NoTempDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage dir %s: %w", abs, err)
	}
	return New(b), nil
}

// New 包装一个已打开的 bucket（测试中常用 mem://）。
func New(b *blob.Bucket) *Store { return &Store{bucket: b} }

func (s *Store) Close() error { return s.bucket.Close() }

// Write 把 data 原样写到 key 下，已存在则覆盖。
func (s *Store) Write(ctx context.Context, key, contentType string, data []byte) error {
	if key == "" {
		return errors.New("storage: empty key")
	}
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Reader 返回 key 的只读流以及大小与内容类型，调用方负责关闭。
func (s *Store) Reader(ctx context.Context, key string) (io.ReadCloser, int64, string, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, 0, "", ErrNotFound
		}
		return nil, 0, "", fmt.Errorf("open %s: %w", key, err)
	}
	return r, r.Size(), r.ContentType(), nil
}

// List 返回后缀匹配（不区分大小写）的全部对象，按键排序。
func (s *Store) List(ctx context.Context, suffix string) ([]Object, error) {
	suffix = strings.ToLower(suffix)
	var out []Object
	it := s.bucket.List(nil)
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list storage: %w", err)
		}
		if obj.IsDir || !strings.HasSuffix(strings.ToLower(obj.Key), suffix) {
			continue
		}
		out = append(out, Object{Key: obj.Key, Size: obj.Size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
