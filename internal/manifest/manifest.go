// 包 manifest 读取日期清单：一个由字符串组成的 JSON 数组，按原顺序返回且不做校验。
// 清单缺失或格式错误时整轮运行失败，没有部分回退。
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrEmpty 表示清单文件为空。
var ErrEmpty = errors.New("manifest is empty")

// Load 读取 path 处的清单。
func Load(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(b)
}

// Parse 严格按 JSON 解析清单；元素必须全部是字符串，数组后不允许多余内容。
func Parse(b []byte) ([]string, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, ErrEmpty
	}
	var dates []string
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&dates); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if dec.More() {
		return nil, errors.New("unmarshal manifest: trailing data after array")
	}
	if dates == nil {
		return nil, errors.New("unmarshal manifest: not an array")
	}
	return dates, nil
}
