package nasa

import "go-rover-gallery/internal/model"

// RoverBatch 为同一火星车被选中的照片。
type RoverBatch struct {
	Rover  string
	Photos []model.PhotoRecord
}

// SelectPerRover 按 Rover.Name 分组（按首次出现的顺序），每车最多取 limit 张，保持原始相对顺序。
// 上限针对单次响应中的每辆车，而非跨日期累计。
func SelectPerRover(photos []model.PhotoRecord, limit int) []RoverBatch {
	if limit <= 0 {
		return nil
	}
	var out []RoverBatch
	pos := make(map[string]int)
	for _, p := range photos {
		i, ok := pos[p.Rover.Name]
		if !ok {
			i = len(out)
			pos[p.Rover.Name] = i
			out = append(out, RoverBatch{Rover: p.Rover.Name})
		}
		if len(out[i].Photos) < limit {
			out[i].Photos = append(out[i].Photos, p)
		}
	}
	return out
}
