package model

import "time"

// Report 为一次抓取的汇总，Dates 与输入清单顺序一致。
type Report struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Dates      []DateResult `json:"dates"`
	Stats      ReportStats  `json:"stats"`
}

// DateResult 为单个日期的元数据阶段结果。
// OK 为 true 表示元数据已取回且所有下载都已结束（无论各自成败）。
type DateResult struct {
	Raw       string        `json:"raw"`
	Date      string        `json:"date,omitempty"`
	OK        bool          `json:"ok"`
	Reason    string        `json:"reason,omitempty"`
	Photos    int           `json:"photos"`
	Downloads []PhotoResult `json:"downloads,omitempty"`
}

// PhotoResult 为单张图片下载的结果。
type PhotoResult struct {
	PhotoID   int64  `json:"photo_id"`
	Rover     string `json:"rover"`
	EarthDate string `json:"earth_date"`
	FileName  string `json:"filename,omitempty"`
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
}

type ReportStats struct {
	DatesTotal      int `json:"dates_total"`
	DatesOK         int `json:"dates_ok"`
	DownloadsTotal  int `json:"downloads_total"`
	DownloadsOK     int `json:"downloads_ok"`
	DownloadsFailed int `json:"downloads_failed"`
}

// Outcomes 返回按输入顺序排列的日期级布尔结果。
func (r Report) Outcomes() []bool {
	out := make([]bool, len(r.Dates))
	for i, d := range r.Dates {
		out[i] = d.OK
	}
	return out
}

// Finalize 根据明细重算统计。
func (r *Report) Finalize() {
	var st ReportStats
	st.DatesTotal = len(r.Dates)
	for _, d := range r.Dates {
		if d.OK {
			st.DatesOK++
		}
		for _, p := range d.Downloads {
			st.DownloadsTotal++
			if p.OK {
				st.DownloadsOK++
			} else {
				st.DownloadsFailed++
			}
		}
	}
	r.Stats = st
}
