package session

import (
	"context"
	"sync"
	"time"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
	"github.com/jeovahfialho/portfolio-analyzer/pkg/logger"
	"github.com/jeovahfialho/portfolio-analyzer/pkg/metrics"
	"go.uber.org/zap"
)

// Store guarda em memória o dataset de cada sessão. É o único estado mutável
// do processo: os pacotes de extração e análise recebem o dataset por valor
// e nunca enxergam a store. Cada Put substitui o dataset anterior por
// inteiro.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]*entry
}

type entry struct {
	dataset   *domain.Dataset
	expiresAt time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &Store{
		ttl:     ttl,
		entries: make(map[string]*entry),
	}
}

func (s *Store) Put(id string, ds *domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = &entry{
		dataset:   ds,
		expiresAt: time.Now().Add(s.ttl),
	}
	metrics.ActiveSessions.Set(float64(len(s.entries)))
}

// Get devolve o dataset da sessão e renova sua validade. Sessão expirada
// conta como ausente.
func (s *Store) Get(id string) (*domain.Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, id)
		metrics.ActiveSessions.Set(float64(len(s.entries)))
		return nil, false
	}

	e.expiresAt = time.Now().Add(s.ttl)
	return e.dataset, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	metrics.ActiveSessions.Set(float64(len(s.entries)))
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Cleanup remove as sessões expiradas e devolve quantas caíram.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.entries)))
	return removed
}

// StartJanitor dispara a limpeza periódica até o contexto encerrar.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Cleanup(); removed > 0 {
					logger.Debug("sessões expiradas removidas", zap.Int("count", removed))
				}
			}
		}
	}()
}
