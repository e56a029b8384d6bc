package adminclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// DownloadFile скачивает вложение заказа в destDir и возвращает путь
// к сохранённому файлу. Имя берётся из Content-Disposition.
func (c *Client) DownloadFile(ctx context.Context, token string, id int64, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/admin/orders/%d/file", c.baseURL, id), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(headerToken, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var env resultEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Err != "" {
			return "", errors.New(env.Err)
		}
		return "", fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
	}

	name := fmt.Sprintf("order-%d-attachment", id)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := filepath.Base(params["filename"]); fn != "" && fn != "." && fn != string(filepath.Separator) {
			name = fn
		}
	}

	dest := filepath.Join(destDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("download: %w", err)
	}
	return dest, nil
}
