// Package session keeps the state an interactive caller needs between
// conversions: the last good output and a memo of recent results.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcncl/pytyper/internal/generator"
	"github.com/mcncl/pytyper/internal/logging"
)

// DefaultCacheSize is the number of results remembered.
const DefaultCacheSize = 64

// ConvertFunc produces output for text in style. ok is false when the text
// holds nothing to convert.
type ConvertFunc func(text string, style generator.Style) (code string, ok bool, err error)

// Session re-runs a conversion on every change of text or style. A failed
// conversion leaves the previous output in place.
type Session struct {
	id      string
	convert ConvertFunc
	logger  *log.Logger

	mu    sync.Mutex
	cache *lru.Cache[string, string]
	last  string
}

// New creates a Session around convert. A nil logger discards output.
func New(convert ConvertFunc, size int, logger *log.Logger) (*Session, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		convert: convert,
		logger:  logger.With("session", id[:8]),
		cache:   c,
	}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Update converts text in style. On success it returns the new output and
// remembers it. Empty text clears the output. On failure it returns the
// previous output together with the error.
func (s *Session) Update(text string, style generator.Style) (string, error) {
	key := cacheKey(text, style)

	s.mu.Lock()
	if code, ok := s.cache.Get(key); ok {
		s.last = code
		s.mu.Unlock()
		s.logger.Debug("cache hit", "style", style)
		return code, nil
	}
	s.mu.Unlock()

	code, ok, err := s.convert(text, style)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Debug("conversion failed, keeping previous output", "style", style, "err", err)
		return s.last, err
	}
	if !ok {
		code = ""
	}
	s.cache.Add(key, code)
	s.last = code
	return code, nil
}

// Last returns the most recent successful output.
func (s *Session) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Cached reports how many results are memoised.
func (s *Session) Cached() int {
	return s.cache.Len()
}

func cacheKey(text string, style generator.Style) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(int(style))))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
