// 包 model 定义远端 API 的照片记录、本地缓存文件与运行报告。
package model

import (
	"fmt"
	"strings"
	"time"
)

// PhotoPage 为元数据接口的顶层响应：{"photos": [...]}。
type PhotoPage struct {
	Photos []PhotoRecord `json:"photos"`
}

// PhotoRecord 为单张照片的元数据，只在一次抓取周期内存在于内存中。
type PhotoRecord struct {
	ID          int64  `json:"id"`
	Sol         int64  `json:"sol"`
	Camera      Camera `json:"camera"`
	ImageSource string `json:"img_src"`
	EarthDate   string `json:"earth_date"`
	Rover       Rover  `json:"rover"`
}

type Camera struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RoverID  int64  `json:"rover_id"`
	FullName string `json:"full_name"`
}

// Rover 标识拍摄照片的火星车，Name 是每车数量上限的分组键。
type Rover struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	LandingDate string `json:"landing_date"`
	LaunchDate  string `json:"launch_date"`
	Status      string `json:"status"`
}

// FilePrefix 与 FileExt 构成缓存文件名的固定部分。
const (
	FilePrefix = "Rover"
	FileExt    = ".jpg"
)

// FileName 返回照片的缓存文件名：Rover.<RoverName>.<EarthDate>.<CameraFullName>.<Id>.jpg。
// 同一 (rover, earth date, camera, id) 总是得到同一文件名，重复写入即覆盖。
// 各段中的路径分隔符替换为 "_"，文件始终落在存储目录顶层。
func FileName(p PhotoRecord) string {
	return fmt.Sprintf("%s.%s.%s.%s.%d%s", FilePrefix,
		segment(p.Rover.Name), segment(p.EarthDate), segment(p.Camera.FullName), p.ID, FileExt)
}

var pathSeps = strings.NewReplacer("/", "_", "\\", "_")

func segment(s string) string { return pathSeps.Replace(s) }

// CachedImage 为本地已缓存的图片及其结构化标签（来自旁路索引或文件名拆分）。
type CachedImage struct {
	FileName   string    `json:"filename"`
	Rover      string    `json:"rover"`
	EarthDate  string    `json:"earth_date"`
	Camera     string    `json:"camera"`
	CameraName string    `json:"camera_name,omitempty"`
	PhotoID    int64     `json:"photo_id,omitempty"`
	Sol        int64     `json:"sol,omitempty"`
	ImageSrc   string    `json:"img_src,omitempty"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCachedImage 由照片记录与写入字节数构造索引条目。
func NewCachedImage(p PhotoRecord, size int64) CachedImage {
	return CachedImage{
		FileName:   FileName(p),
		Rover:      p.Rover.Name,
		EarthDate:  p.EarthDate,
		Camera:     p.Camera.FullName,
		CameraName: p.Camera.Name,
		PhotoID:    p.ID,
		Sol:        p.Sol,
		ImageSrc:   p.ImageSource,
		Size:       size,
		CreatedAt:  time.Now(),
	}
}

// LabelsFromFileName 按句点拆分文件名，取固定前缀后的 rover/date/camera 三段。
// 相机全名中若含句点，标签会错位；这是文件名编码元数据的已知缺陷，仅用于未入索引的文件。
func LabelsFromFileName(name string) (rover, earthDate, camera string, ok bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 4 || parts[0] != FilePrefix {
		return "", "", "", false
	}
	return parts[1], parts[2], parts[3], true
}

// CameraKind 为已知的火星车相机简称。
type CameraKind int

const (
	CameraUnknown CameraKind = iota
	CameraFHAZ
	CameraRHAZ
	CameraMAST
	CameraCHEMCAM
	CameraMAHLI
	CameraMARDI
	CameraNAVCAM
	CameraPANCAM
	CameraMINITES
)

var cameraKinds = map[string]CameraKind{
	"FHAZ":    CameraFHAZ,
	"RHAZ":    CameraRHAZ,
	"MAST":    CameraMAST,
	"CHEMCAM": CameraCHEMCAM,
	"MAHLI":   CameraMAHLI,
	"MARDI":   CameraMARDI,
	"NAVCAM":  CameraNAVCAM,
	"PANCAM":  CameraPANCAM,
	"MINITES": CameraMINITES,
}

// ParseCameraKind 不区分大小写地识别相机简称，未知返回 CameraUnknown。
func ParseCameraKind(name string) CameraKind {
	return cameraKinds[strings.ToUpper(strings.TrimSpace(name))]
}

func (k CameraKind) String() string {
	for n, v := range cameraKinds {
		if v == k {
			return n
		}
	}
	return "UNKNOWN"
}
