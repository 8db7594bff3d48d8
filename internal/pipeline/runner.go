// 包 pipeline 负责两级扇出编排：
// - 第一级：所有日期并发查询元数据
// - 第二级：每个日期按火星车挑选照片并并发下载
// 同级任务全部启动后整体汇合，单个失败不会取消兄弟任务；结果按输入顺序返回。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"go-rover-gallery/internal/dates"
	"go-rover-gallery/internal/fetch"
	"go-rover-gallery/internal/logx"
	"go-rover-gallery/internal/manifest"
	"go-rover-gallery/internal/model"
	"go-rover-gallery/internal/nasa"
)

// PhotoSource 按日期取回照片元数据。
type PhotoSource interface {
	Photos(ctx context.Context, day time.Time) ([]model.PhotoRecord, error)
}

// Downloader 下载单张照片，失败以结果表示而非错误。
type Downloader interface {
	Download(ctx context.Context, p model.PhotoRecord) model.PhotoResult
}

// Options 控制每车上限与两级并发度。
type Options struct {
	MaxPerRover     int
	DateWorkers     int
	DownloadWorkers int
}

// Runner 可被多次、并发调用；图片下载共享同一个进程级信号量。
type Runner struct {
	photos PhotoSource
	dl     Downloader
	opts   Options
	slots  *semaphore.Weighted
}

func New(photos PhotoSource, dl Downloader, opts Options) *Runner {
	if opts.MaxPerRover <= 0 {
		opts.MaxPerRover = 10
	}
	if opts.DateWorkers <= 0 {
		opts.DateWorkers = 1
	}
	if opts.DownloadWorkers <= 0 {
		opts.DownloadWorkers = 1
	}
	return &Runner{
		photos: photos,
		dl:     dl,
		opts:   opts,
		slots:  semaphore.NewWeighted(int64(opts.DownloadWorkers)),
	}
}

// RunManifest 读取清单后执行一轮；清单缺失或损坏是唯一的致命错误。
func (r *Runner) RunManifest(ctx context.Context, path string) (model.Report, error) {
	raw, err := manifest.Load(path)
	if err != nil {
		return model.Report{}, fmt.Errorf("load manifest: %w", err)
	}
	return r.Run(ctx, raw), nil
}

// Run 对 rawDates 执行一轮抓取。Report.Outcomes() 与 rawDates 一一对应。
func (r *Runner) Run(ctx context.Context, rawDates []string) model.Report {
	rep := model.Report{
		StartedAt: time.Now(),
		Dates:     make([]model.DateResult, len(rawDates)),
	}
	logx.Infof("开始抓取：日期数=%d 日期并发=%d 下载并发=%d", len(rawDates), r.opts.DateWorkers, r.opts.DownloadWorkers)

	// 不使用 WithContext：一个日期失败不应取消其他日期
	var g errgroup.Group
	g.SetLimit(r.opts.DateWorkers)
	for i, raw := range rawDates {
		g.Go(func() error {
			rep.Dates[i] = r.fetchDate(ctx, raw)
			return nil
		})
	}
	_ = g.Wait()

	rep.FinishedAt = time.Now()
	rep.Finalize()
	logx.Infof("抓取结束：日期成功=%d/%d 下载成功=%d 失败=%d 耗时=%s",
		rep.Stats.DatesOK, rep.Stats.DatesTotal, rep.Stats.DownloadsOK, rep.Stats.DownloadsFailed,
		rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	return rep
}

// fetchDate 处理单个日期：解析→查询→按车挑选→下载并汇合。
func (r *Runner) fetchDate(ctx context.Context, raw string) model.DateResult {
	res := model.DateResult{Raw: raw}
	day, err := dates.Parse(raw)
	if err != nil {
		res.Reason = "unparseable date"
		logx.Warn("无法解析日期，跳过", "raw", raw)
		return res
	}
	res.Date = dates.Format(day)

	photos, err := r.photos.Photos(ctx, day)
	if err != nil {
		res.Reason = err.Error()
		var se *fetch.StatusError
		switch {
		case errors.As(err, &se):
			logx.Warn("元数据接口返回非成功状态，跳过", "earth_date", res.Date, "status", se.Code, "url", se.URL)
		case errors.Is(err, nasa.ErrEmptyBody):
			logx.Warn("元数据响应为空，跳过", "earth_date", res.Date)
		case errors.Is(err, nasa.ErrMalformed):
			logx.Warn("元数据 JSON 无法解析，跳过该日期", "earth_date", res.Date, "err", err)
		default:
			logx.Warn("元数据请求失败，跳过", "earth_date", res.Date, "err", err)
		}
		return res
	}
	res.Photos = len(photos)

	batches := nasa.SelectPerRover(photos, r.opts.MaxPerRover)
	var selected []model.PhotoRecord
	for _, b := range batches {
		logx.Debugf("%s %s：共 %d 张，选中 %d 张", res.Date, b.Rover, countRover(photos, b.Rover), len(b.Photos))
		selected = append(selected, b.Photos...)
	}
	res.Downloads = r.downloadAll(ctx, selected)
	res.OK = true
	return res
}

// downloadAll 并发下载并等待全部结束；在途数量受共享信号量约束。
func (r *Runner) downloadAll(ctx context.Context, photos []model.PhotoRecord) []model.PhotoResult {
	out := make([]model.PhotoResult, len(photos))
	var g errgroup.Group
	for i, p := range photos {
		g.Go(func() error {
			if err := r.slots.Acquire(ctx, 1); err != nil {
				out[i] = model.PhotoResult{PhotoID: p.ID, Rover: p.Rover.Name, EarthDate: p.EarthDate, Reason: err.Error()}
				return nil
			}
			defer r.slots.Release(1)
			out[i] = r.dl.Download(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func countRover(photos []model.PhotoRecord, rover string) int {
	n := 0
	for _, p := range photos {
		if p.Rover.Name == rover {
			n++
		}
	}
	return n
}
