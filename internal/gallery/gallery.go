// 包 gallery 把存储中的全部缓存图片渲染为 HTML：每个文件一个 <img>。
// 标签优先取自旁路索引；索引里没有的文件（旧版本缓存或手工放入）按文件名句点拆分兜底。
package gallery

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"go-rover-gallery/internal/logx"
	"go-rover-gallery/internal/model"
	"go-rover-gallery/internal/storage"
)

// Lister 列出存储中的对象。
type Lister interface {
	List(ctx context.Context, suffix string) ([]storage.Object, error)
}

// Labels 提供 filename → 结构化标签。
type Labels interface {
	Lookup(ctx context.Context) (map[string]model.CachedImage, error)
}

// Image 为页面上的一张图片。
type Image struct {
	model.CachedImage
	Src     string
	Indexed bool
}

var page = template.Must(template.New("gallery").Parse(
	`<html><body>{{range .}}<img src='{{.Src}}' title='Rover: {{.Rover}}, EarthDate: {{.EarthDate}}, Camera: {{.Camera}} '>{{end}}</body></html>`))

type Renderer struct {
	store     Lister
	labels    Labels
	srcPrefix string
}

// New 创建渲染器；labels 可为 nil；srcPrefix 拼在转义后的文件名前作为 <img src>。
func New(store Lister, labels Labels, srcPrefix string) *Renderer {
	return &Renderer{store: store, labels: labels, srcPrefix: srcPrefix}
}

// Images 返回当前存储中的全部图片（按文件名排序），包括历次运行缓存的文件。
func (r *Renderer) Images(ctx context.Context) ([]Image, error) {
	objs, err := r.store.List(ctx, model.FileExt)
	if err != nil {
		return nil, fmt.Errorf("list cached images: %w", err)
	}
	var known map[string]model.CachedImage
	if r.labels != nil {
		if known, err = r.labels.Lookup(ctx); err != nil {
			logx.Warnf("读取索引失败，改用文件名标签：%v", err)
			known = nil
		}
	}
	out := make([]Image, 0, len(objs))
	for _, o := range objs {
		img := Image{Src: r.srcPrefix + url.PathEscape(o.Key)}
		if ci, ok := known[o.Key]; ok {
			img.CachedImage = ci
			img.Indexed = true
		} else {
			rover, date, camera, _ := model.LabelsFromFileName(o.Key)
			img.CachedImage = model.CachedImage{FileName: o.Key, Rover: rover, EarthDate: date, Camera: camera}
		}
		img.Size = o.Size
		out = append(out, img)
	}
	return out, nil
}

// Render 写出完整的 HTML 文档。
func (r *Renderer) Render(ctx context.Context, w io.Writer) error {
	imgs, err := r.Images(ctx)
	if err != nil {
		return err
	}
	if err := page.Execute(w, imgs); err != nil {
		return fmt.Errorf("render gallery: %w", err)
	}
	return nil
}
