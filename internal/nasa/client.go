// 包 nasa 是火星车照片元数据接口的客户端：按地球日期查询照片记录，并按火星车挑选待下载的子集。
package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go-rover-gallery/internal/config"
	"go-rover-gallery/internal/dates"
	"go-rover-gallery/internal/fetch"
	"go-rover-gallery/internal/model"
)

var (
	// ErrEmptyBody 表示响应没有可读的正文。
	ErrEmptyBody = errors.New("metadata response has no body")
	// ErrMalformed 表示正文不是合法的照片 JSON。
	ErrMalformed = errors.New("malformed metadata response")
)

// Client 查询元数据接口；只读字段，可被多个 goroutine 共享。
type Client struct {
	fetch     *fetch.Client
	baseURL   string
	key       string
	dateParam string
	keyParam  string
}

func New(cl *fetch.Client, api config.API) *Client {
	return &Client{
		fetch:     cl,
		baseURL:   api.BaseURL,
		key:       api.Key,
		dateParam: api.DateParam,
		keyParam:  api.KeyParam,
	}
}

// QueryURL 返回 day 对应的请求地址：<base>?earth_date=YYYY-MM-DD&api_key=<key>。
func (c *Client) QueryURL(day time.Time) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(c.dateParam, dates.Format(day))
	q.Set(c.keyParam, c.key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Photos 取回 day 当天的全部照片记录，保持接口返回的顺序。
// 非 200 返回 *fetch.StatusError；空正文返回 ErrEmptyBody；JSON 错误返回 ErrMalformed。
func (c *Client) Photos(ctx context.Context, day time.Time) ([]model.PhotoRecord, error) {
	reqURL, err := c.QueryURL(day)
	if err != nil {
		return nil, err
	}
	resp, err := c.fetch.Get(ctx, reqURL)
	if err != nil {
		var se *fetch.StatusError
		if errors.As(err, &se) {
			se.URL = c.redact(se.URL)
		}
		return nil, fmt.Errorf("GET photos %s: %w", dates.Format(day), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.StatusError{Code: resp.StatusCode, Status: resp.Status, URL: c.redact(reqURL)}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrEmptyBody
	}
	var page model.PhotoPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return page.Photos, nil
}

// redact 去掉地址中的密钥，用于日志与错误信息。
func (c *Client) redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has(c.keyParam) {
		q.Set(c.keyParam, "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
