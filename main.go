// 命令行入口：
// - 解析 flags 与 settings.yaml，初始化日志、HTTP 客户端、存储与旁路索引
// - 默认启动 HTTP 服务；-once 只执行一轮抓取并把画廊写成 HTML 文件
// - -list / -export-index / -reset-index 用于查看与维护索引
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"go-rover-gallery/internal/config"
	"go-rover-gallery/internal/download"
	"go-rover-gallery/internal/export"
	"go-rover-gallery/internal/fetch"
	"go-rover-gallery/internal/gallery"
	"go-rover-gallery/internal/index"
	"go-rover-gallery/internal/logx"
	"go-rover-gallery/internal/model"
	"go-rover-gallery/internal/nasa"
	"go-rover-gallery/internal/pipeline"
	"go-rover-gallery/internal/server"
	"go-rover-gallery/internal/storage"
)

func main() {
	var (
		configPath  = flag.String("config", "settings.yaml", "path to settings.yaml (optional; defaults plus ROVER_API_KEY when absent)")
		once        = flag.Bool("once", false, "run one fetch pass, write the gallery HTML and exit")
		htmlPath    = flag.String("html", "gallery.html", "gallery output path for -once")
		reportPath  = flag.String("report", "", "write the JSON run report to this path (-once)")
		list        = flag.Bool("list", false, "print indexed images and exit")
		exportIndex = flag.String("export-index", "", "dump the image index as JSON to this path and exit")
		resetIndex  = flag.Bool("reset-index", false, "clear the image index before starting (images are kept)")
	)
	flag.Parse()

	// 1) 配置：默认路径的文件不存在时退回默认值
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// 2) 日志
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3) 存储与索引
	st, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer st.Close()
	idx, err := index.Open(cfg.Index.DSN)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	defer idx.Close()
	if *resetIndex {
		if err := idx.Reset(ctx); err != nil {
			logx.Warnf("清空索引失败：%v", err)
		} else {
			logx.Infof("已清空图片索引")
		}
	}

	if *list {
		imgs, err := idx.List(ctx)
		if err != nil {
			log.Fatalf("list index: %v", err)
		}
		for _, im := range imgs {
			fmt.Printf("%s\trover=%s\tdate=%s\tcamera=%s\tkind=%s\tbytes=%d\n",
				im.FileName, im.Rover, im.EarthDate, im.Camera, model.ParseCameraKind(im.CameraName), im.Size)
		}
		n, err := idx.Count(ctx)
		if err != nil {
			log.Fatalf("count index: %v", err)
		}
		logx.Infof("索引共 %d 张图片", n)
		return
	}
	if *exportIndex != "" {
		if err := export.IndexToJSON(ctx, idx, *exportIndex); err != nil {
			log.Fatalf("export index: %v", err)
		}
		logx.Infof("已导出索引 %s", *exportIndex)
		return
	}

	// 4) HTTP 客户端与两级流水线（只有这里之后的路径需要 API 密钥）
	if err := cfg.RequireAPIKey(); err != nil {
		log.Fatalf("config: %v", err)
	}
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.HTTP.RequestTimeout(),
		Retry:      cfg.Concurrency.Retry,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}
	if cfg.HTTP.RequestTimeout() == 0 {
		logx.Infof("未设置 HTTP.timeout：挂起的远端请求会一直阻塞本轮抓取")
	}
	pipe := pipeline.New(
		nasa.New(cl, cfg.API),
		download.New(cl, st, idx),
		pipeline.Options{
			MaxPerRover:     cfg.MaxImagesPerRover,
			DateWorkers:     cfg.Concurrency.Dates,
			DownloadWorkers: cfg.Concurrency.Downloads,
		},
	)

	if *once {
		if err := runOnce(ctx, cfg, pipe, st, idx, *htmlPath, *reportPath); err != nil {
			logx.Errorf("运行失败：%v", err)
			os.Exit(1)
		}
		return
	}

	// 5) HTTP 服务
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.New(pipe, gallery.New(st, idx, server.ImagePath), st, cfg.Manifest).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logx.Infof("监听 %s（GET / 抓取并渲染，GET /gallery 仅渲染，POST /fetch 仅抓取）", cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == "settings.yaml" {
		return config.Default()
	}
	return config.Load(path)
}

// runOnce 执行一轮抓取并写出画廊 HTML；图片 src 为相对 HTML 文件的存储目录路径。
func runOnce(ctx context.Context, cfg *config.Config, pipe *pipeline.Runner, st *storage.Store, idx *index.SQLite, htmlPath, reportPath string) error {
	rep, err := pipe.RunManifest(ctx, cfg.Manifest)
	if err != nil {
		return err
	}
	if reportPath != "" {
		if err := export.ToJSON(rep, reportPath); err != nil {
			return fmt.Errorf("export report: %w", err)
		}
		logx.Infof("已导出报告 %s", reportPath)
	}
	prefix := ""
	if cfg.Storage.URL == "" {
		prefix = srcPrefix(htmlPath, cfg.Storage.Dir)
	}
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", htmlPath, err)
	}
	defer f.Close()
	if err := gallery.New(st, idx, prefix).Render(ctx, f); err != nil {
		return err
	}
	logx.Infof("已写出画廊 %s", htmlPath)
	return nil
}

func srcPrefix(htmlPath, storageDir string) string {
	htmlAbs, err1 := filepath.Abs(htmlPath)
	dirAbs, err2 := filepath.Abs(storageDir)
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(storageDir) + "/"
	}
	rel, err := filepath.Rel(filepath.Dir(htmlAbs), dirAbs)
	if err != nil {
		return filepath.ToSlash(dirAbs) + "/"
	}
	return filepath.ToSlash(rel) + "/"
}
