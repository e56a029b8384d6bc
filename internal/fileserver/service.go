// Package fileserver хранит вложения заказов на диске в сжатом виде (.gz)
// и отдаёт их при скачивании из админки.
package fileserver

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/pixelcraft/internal/logger"
)

// ErrBlockedType — расширение или содержимое файла не прошло проверку.
var ErrBlockedType = errors.New("file type not allowed")

// ErrTooLarge — вложение больше настроенного лимита.
var ErrTooLarge = errors.New("file too large")

// Блокируем только опасные расширения (исполняемые/скрипты). Остальные — разрешены.
var BlockedExt = map[string]bool{
	".exe": true, ".sh": true, ".js": true, ".bat": true, ".cmd": true,
	".php": true, ".py": true, ".rb": true,
}

// Attachment — результат сохранения вложения.
type Attachment struct {
	Key      string
	FileName string
	FileSize int64
}

// Service обрабатывает сохранение, отдачу и удаление вложений.
type Service struct {
	UploadDir     string
	MaxUploadSize int64
}

// New создаёт сервис с заданным каталогом и лимитом размера (в байтах).
func New(uploadDir string, maxUploadSize int64) *Service {
	return &Service{UploadDir: uploadDir, MaxUploadSize: maxUploadSize}
}

// Save принимает поток вложения, валидирует расширение и сигнатуру,
// сохраняет в UploadDir под uuid-ключом.
func (s *Service) Save(ctx context.Context, src io.Reader, origName string, size int64) (*Attachment, error) {
	if s.MaxUploadSize > 0 && size > s.MaxUploadSize {
		return nil, ErrTooLarge
	}
	// Пробел в имени в ряде клиентов кодируется как "+"; нормализуем.
	rawName := strings.ReplaceAll(origName, "+", " ")
	ext := strings.ToLower(filepath.Ext(rawName))
	if BlockedExt[ext] {
		return nil, ErrBlockedType
	}

	head := make([]byte, 512)
	n, _ := io.ReadAtLeast(src, head, len(head))
	head = head[:n]
	if !matchMagic(ext, head) {
		return nil, ErrBlockedType
	}

	key := uuid.New().String() + ext
	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	dstPath := filepath.Join(s.UploadDir, key+".gz")
	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	gz := gzip.NewWriter(dst)
	if _, err := gz.Write(head); err != nil {
		gz.Close()
		dst.Close()
		os.Remove(dstPath)
		return nil, fmt.Errorf("write head: %w", err)
	}
	if err := copyWithContext(ctx, gz, src); err != nil {
		gz.Close()
		dst.Close()
		os.Remove(dstPath)
		return nil, err
	}
	if err := gz.Close(); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("close file: %w", err)
	}

	// Имя для отображения: только базовая часть без пути, безопасные символы; иначе — ключ
	displayName := strings.TrimSpace(filepath.Base(rawName))
	if displayName == "" || safeFilename(displayName) == "" {
		displayName = key
	} else {
		displayName = safeFilename(displayName)
	}
	return &Attachment{Key: key, FileName: displayName, FileSize: size}, nil
}

// Serve отдаёт вложение по ключу (разархивирует при отдаче); displayName — имя для Content-Disposition.
func (s *Service) Serve(w http.ResponseWriter, key, displayName string) {
	key = filepath.Base(key)
	gzPath := filepath.Join(s.UploadDir, key+".gz")

	if ct := contentTypeByExt(filepath.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if safe := safeFilename(displayName); safe != "" {
		disp := "attachment; filename*=UTF-8''" + url.QueryEscape(safe)
		// Legacy filename= только когда имя целиком ASCII — иначе браузер покажет подчёркивания.
		if ascii := asciiFallbackFilename(safe); ascii != "" && ascii == safe {
			disp = "attachment; filename=\"" + ascii + "\"; " + disp
		}
		w.Header().Set("Content-Disposition", disp)
	}

	f, err := os.Open(gzPath)
	if err != nil {
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"kind":"err","err":"file not found"}`))
		return
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"kind":"err","err":"failed to read file"}`))
		return
	}
	defer gz.Close()
	w.WriteHeader(http.StatusOK)
	io.Copy(w, gz)
}

// Remove удаляет вложение с диска (вызывается при удалении заказа).
func (s *Service) Remove(key string) {
	if key == "" {
		return
	}
	key = filepath.Base(key)
	if err := os.Remove(filepath.Join(s.UploadDir, key+".gz")); err != nil && !os.IsNotExist(err) {
		logger.Errorf("fileserver: remove %s: %v", key, err)
	}
}

func matchMagic(ext string, head []byte) bool {
	switch ext {
	case ".jpg", ".jpeg":
		return len(head) >= 3 && head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF
	case ".png":
		return len(head) >= 8 && bytes.Equal(head[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	case ".gif":
		return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
	case ".webp":
		return len(head) >= 12 && bytes.Equal(head[8:12], []byte("WEBP"))
	case ".pdf":
		return len(head) >= 5 && bytes.Equal(head[:5], []byte("%PDF-"))
	case ".doc":
		return len(head) >= 8 && head[0] == 0xD0 && head[1] == 0xCF && head[2] == 0x11 && head[3] == 0xE0
	case ".docx", ".zip":
		return len(head) >= 4 && head[0] == 0x50 && head[1] == 0x4B && (head[2] == 0x03 || head[2] == 0x05) && head[3] == 0x04
	case ".txt":
		return true
	}
	return true
}

func contentTypeByExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".zip":
		return "application/zip"
	case ".txt":
		return "text/plain"
	}
	return ""
}

// safeFilename оставляет имя файла безопасным для Content-Disposition (без управляющих символов и кавычек).
// UTF-8 сохраняется, чтобы не терять не-латинские имена.
func safeFilename(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\r', '\n', '"', '\\', '/', '\x00':
			continue
		}
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// asciiFallbackFilename возвращает имя только из ASCII для legacy filename= в Content-Disposition.
func asciiFallbackFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("upload cancelled: %w", ctx.Err())
		default:
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read: %w", readErr)
		}
	}
}
