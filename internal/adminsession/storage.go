package adminsession

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pixelcraft/internal/logger"
)

// Storage — key-value хранилище строк под сессией админа. Операции не
// возвращают ошибок: отсутствующее или нечитаемое значение — это просто
// пустая строка, сбой записи логируется и глотается.
type Storage interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

// MemoryStorage — хранилище в памяти процесса. Живёт до завершения процесса,
// как sessionStorage вкладки браузера.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *MemoryStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// FileStorage — хранилище в JSON-файле, чтобы сессия консоли переживала
// перезапуск. Файл создаётся с правами 0600: в нём лежит токен.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStorage загружает значения из path. Нечитаемый или битый файл —
// не ошибка: начинаем с пустого состояния.
func NewFileStorage(path string) *FileStorage {
	s := &FileStorage{path: path, values: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(raw, &s.values); err != nil {
		logger.Errorf("adminsession: corrupt session file %s, starting clean: %v", path, err)
		s.values = make(map[string]string)
	}
	return s
}

func (s *FileStorage) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *FileStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.persist()
}

func (s *FileStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.persist()
}

// persist вызывается под мьютексом.
func (s *FileStorage) persist() {
	raw, err := json.Marshal(s.values)
	if err != nil {
		logger.Errorf("adminsession: marshal session file: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		logger.Errorf("adminsession: mkdir for session file: %v", err)
		return
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		logger.Errorf("adminsession: write session file: %v", err)
	}
}
