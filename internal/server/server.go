// 包 server 暴露 HTTP 接口：
// - GET / 与 GET /rover：同步执行一轮抓取，然后返回全部缓存图片的 HTML（请求耗时取决于最慢的远端调用）
// - GET /gallery：只渲染，不抓取
// - POST /fetch：只抓取，返回 JSON 报告
// - GET /images/{name}：读取缓存图片，供 <img> 引用
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"go-rover-gallery/internal/logx"
	"go-rover-gallery/internal/model"
	"go-rover-gallery/internal/storage"
)

// ImagePath 为图片路由前缀，画廊渲染时作为 src 前缀。
const ImagePath = "/images/"

type Pipeline interface {
	RunManifest(ctx context.Context, path string) (model.Report, error)
}

type Gallery interface {
	Render(ctx context.Context, w io.Writer) error
}

type Blobs interface {
	Reader(ctx context.Context, key string) (io.ReadCloser, int64, string, error)
}

type Server struct {
	pipe     Pipeline
	gallery  Gallery
	blobs    Blobs
	manifest string
}

func New(pipe Pipeline, gallery Gallery, blobs Blobs, manifestPath string) *Server {
	return &Server{pipe: pipe, gallery: gallery, blobs: blobs, manifest: manifestPath}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleFetchAndRender)
	mux.HandleFunc("GET /rover", s.handleFetchAndRender)
	mux.HandleFunc("GET /gallery", s.handleGallery)
	mux.HandleFunc("POST /fetch", s.handleFetch)
	mux.HandleFunc("GET "+ImagePath+"{name...}", s.handleImage)
	return mux
}

func (s *Server) handleFetchAndRender(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.run(w, r); !ok {
		return
	}
	s.handleGallery(w, r)
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.gallery.Render(r.Context(), &buf); err != nil {
		logx.Errorf("渲染画廊失败：%v", err)
		http.Error(w, "render gallery failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.run(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rep)
}

// run 执行一轮抓取；客户端断开不会中止已开始的抓取。清单错误返回 500。
func (s *Server) run(w http.ResponseWriter, r *http.Request) (model.Report, bool) {
	rep, err := s.pipe.RunManifest(context.WithoutCancel(r.Context()), s.manifest)
	if err != nil {
		logx.Errorf("抓取失败：%v", err)
		http.Error(w, "fetch failed: "+err.Error(), http.StatusInternalServerError)
		return rep, false
	}
	return rep, true
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, size, ct, err := s.blobs.Reader(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logx.Warnf("读取图片失败：%s %v", name, err)
		http.Error(w, "read image failed", http.StatusInternalServerError)
		return
	}
	defer rc.Close()
	// 本地目录不保存元数据，读出的类型为 octet-stream，按扩展名补齐
	if ct == "" || ct == "application/octet-stream" {
		if ct = mime.TypeByExtension(path.Ext(name)); ct == "" {
			ct = "image/jpeg"
		}
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	_, _ = io.Copy(w, rc)
}
