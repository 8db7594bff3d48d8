// 包 index 是缓存图片的旁路索引（SQLite）：文件名 → 火星车/日期/相机/照片 id。
// 画廊优先使用索引中的结构化字段，避免从含句点的文件名中拆分标签。
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go-rover-gallery/internal/model"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db *sql.DB
}

// Open 打开数据库并执行自动迁移。
func Open(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// 下载阶段并发写入，单连接串行化即可
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS images (
            filename TEXT UNIQUE,
            rover TEXT,
            earth_date TEXT,
            camera TEXT,
            camera_name TEXT,
            photo_id INTEGER,
            sol INTEGER,
            img_src TEXT,
            size INTEGER,
            created_at TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_images_rover_date ON images(rover, earth_date);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// Reset 清空索引（不删除图片文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images`); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}

// Upsert 插入或更新一条记录（filename 唯一）。
func (s *SQLite) Upsert(ctx context.Context, img model.CachedImage) error {
	if img.FileName == "" {
		return errors.New("image.filename required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO images(filename, rover, earth_date, camera, camera_name, photo_id, sol, img_src, size, created_at)
        VALUES(?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(filename) DO UPDATE SET rover=excluded.rover, earth_date=excluded.earth_date, camera=excluded.camera,
            camera_name=excluded.camera_name, photo_id=excluded.photo_id, sol=excluded.sol, img_src=excluded.img_src, size=excluded.size`,
		img.FileName, img.Rover, img.EarthDate, img.Camera, img.CameraName, img.PhotoID, img.Sol, img.ImageSrc, img.Size, nowOr(img.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert image %s: %w", img.FileName, err)
	}
	return nil
}

const selectCols = `filename, rover, earth_date, camera, COALESCE(camera_name,''), COALESCE(photo_id,0), COALESCE(sol,0), COALESCE(img_src,''), COALESCE(size,0), created_at`

// List 返回全部记录，按文件名排序。
func (s *SQLite) List(ctx context.Context) ([]model.CachedImage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectCols+` FROM images ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()
	var out []model.CachedImage
	for rows.Next() {
		img, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan images: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return out, nil
}

// Lookup 批量读取为 filename → 记录，画廊渲染时使用。
func (s *SQLite) Lookup(ctx context.Context) (map[string]model.CachedImage, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]model.CachedImage, len(list))
	for _, img := range list {
		m[img.FileName] = img
	}
	return m, nil
}

// Count 返回索引条目数（-list 汇总行使用）。
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (model.CachedImage, error) {
	var img model.CachedImage
	var createdAt sql.NullTime
	if err := sc.Scan(&img.FileName, &img.Rover, &img.EarthDate, &img.Camera, &img.CameraName,
		&img.PhotoID, &img.Sol, &img.ImageSrc, &img.Size, &createdAt); err != nil {
		return img, err
	}
	if createdAt.Valid {
		img.CreatedAt = createdAt.Time
	}
	return img, nil
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
