// 包 fetch 封装 HTTP 客户端（代理/可选超时/可选重试），元数据请求与图片下载共用。
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// EnvUserAgent 可覆盖默认 User-Agent。
const EnvUserAgent = "ROVER_UA"

const defaultUA = "go-rover-gallery/1.0 (+https://api.nasa.gov)"

// StatusError 表示远端返回了非 2xx 状态码。
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %s from %s", e.Status, e.URL)
}

// Client 为共享的 HTTP 客户端，可被多个 goroutine 并发使用。
type Client struct {
	http  *http.Client
	retry int
}

// Options 为客户端构造参数。
// Timeout 为 0 时不设置整体请求截止时间：一个挂起的远端调用会一直阻塞调用方。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	Retry      int
	// Transport 可替换底层 RoundTripper（测试或自定义连接池）。
	Transport http.RoundTripper
}

// New 创建客户端，支持 http/https 代理。
func New(opts Options) (*Client, error) {
	rt := opts.Transport
	if rt == nil {
		var httpsProxy, httpProxy *url.URL
		var err error
		if opts.ProxyHTTPS != "" {
			if httpsProxy, err = url.Parse(opts.ProxyHTTPS); err != nil {
				return nil, fmt.Errorf("parse https proxy: %w", err)
			}
		}
		if opts.ProxyHTTP != "" {
			if httpProxy, err = url.Parse(opts.ProxyHTTP); err != nil {
				return nil, fmt.Errorf("parse http proxy: %w", err)
			}
		}
		tr := &http.Transport{
			Proxy: func(req *http.Request) (*url.URL, error) {
				if req.URL.Scheme == "https" && httpsProxy != nil {
					return httpsProxy, nil
				}
				if req.URL.Scheme == "http" && httpProxy != nil {
					return httpProxy, nil
				}
				return http.ProxyFromEnvironment(req)
			},
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConnsPerHost:   16,
		}
		if opts.Timeout > 0 {
			tr.ResponseHeaderTimeout = opts.Timeout
		}
		rt = tr
	}
	retry := opts.Retry
	if retry < 0 {
		retry = 0
	}
	return &Client{
		http:  &http.Client{Transport: rt, Timeout: opts.Timeout},
		retry: retry,
	}, nil
}

// Get 发起 GET 请求；2xx 时返回响应（调用方负责关闭 Body），否则返回 *StatusError 或网络错误。
// retry>0 时按线性间隔重试。
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	attempts := c.retry + 1
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * 300 * time.Millisecond):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		ua := os.Getenv(EnvUserAgent)
		if ua == "" {
			ua = defaultUA
		}
		req.Header.Set("User-Agent", ua)
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		lastErr = &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: rawURL}
		resp.Body.Close()
	}
	return nil, lastErr
}
