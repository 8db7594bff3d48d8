// 包 download 下载单张照片并写入本地存储。
// 任何失败（无地址、网络、状态码、空正文、写盘）都只记录日志并返回失败结果，从不向调用方抛出。
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go-rover-gallery/internal/fetch"
	"go-rover-gallery/internal/logx"
	"go-rover-gallery/internal/model"
)

var (
	ErrNoImageSource = errors.New("photo has no img_src")
	ErrEmptyBody     = errors.New("image response has no body")
)

const contentType = "image/jpeg"

// Blobs 为图片写入目标。
type Blobs interface {
	Write(ctx context.Context, key, contentType string, data []byte) error
}

// Indexer 记录已写入文件的结构化标签。
type Indexer interface {
	Upsert(ctx context.Context, img model.CachedImage) error
}

type Downloader struct {
	fetch *fetch.Client
	blobs Blobs
	index Indexer
}

// New 创建下载器；idx 可为 nil（不维护旁路索引）。
func New(cl *fetch.Client, blobs Blobs, idx Indexer) *Downloader {
	return &Downloader{fetch: cl, blobs: blobs, index: idx}
}

// Download 取回 p 的图片并以确定性文件名保存。
func (d *Downloader) Download(ctx context.Context, p model.PhotoRecord) (res model.PhotoResult) {
	res = model.PhotoResult{PhotoID: p.ID, Rover: p.Rover.Name, EarthDate: p.EarthDate}
	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Reason = fmt.Sprintf("panic: %v", r)
			logx.Warn("下载图片异常", "photo_id", p.ID, "rover", p.Rover.Name, "earth_date", p.EarthDate, "panic", r)
		}
	}()
	n, err := d.download(ctx, p)
	if err != nil {
		res.Reason = err.Error()
		logx.Warn("下载图片失败，跳过", "photo_id", p.ID, "rover", p.Rover.Name, "earth_date", p.EarthDate, "err", err)
		return res
	}
	res.OK = true
	res.FileName = model.FileName(p)
	res.Bytes = n
	logx.Debugf("已缓存 %s（%d 字节）", res.FileName, n)
	return res
}

func (d *Downloader) download(ctx context.Context, p model.PhotoRecord) (int64, error) {
	if p.ImageSource == "" {
		return 0, ErrNoImageSource
	}
	resp, err := d.fetch.Get(ctx, p.ImageSource)
	if err != nil {
		return 0, fmt.Errorf("GET image: %w", err)
	}
	defer resp.Body.Close()
	if resp.Body == nil || resp.Body == http.NoBody {
		return 0, ErrEmptyBody
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read image body: %w", err)
	}
	name := model.FileName(p)
	if err := d.blobs.Write(ctx, name, contentType, data); err != nil {
		return 0, err
	}
	if d.index != nil {
		// 索引写失败不影响图片本身，画廊会回退到文件名拆分
		if err := d.index.Upsert(ctx, model.NewCachedImage(p, int64(len(data)))); err != nil {
			logx.Warn("写入索引失败", "filename", name, "err", err)
		}
	}
	return int64(len(data)), nil
}
