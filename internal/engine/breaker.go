package engine

import (
	"sync"
	"time"
)

// CircuitBreaker отсекает источник данных после серии подряд идущих ошибок
// и снова пропускает запросы по истечении таймаута.
type CircuitBreaker struct {
	name      string
	threshold int
	timeout   time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
}

func NewCircuitBreaker(name string, threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:      name,
		threshold: threshold,
		timeout:   timeout,
	}
}

// RecordFailure учитывает ошибку; возвращает true, если именно этот вызов
// открыл брейкер.
func (b *CircuitBreaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures == b.threshold {
		b.openedAt = time.Now()
		return true
	}
	return false
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openedAt = time.Time{}
}

func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return false
	}
	if time.Since(b.openedAt) >= b.timeout {
		// Полуоткрытое состояние: пропускаем одну попытку.
		b.failures = b.threshold - 1
		return false
	}
	return true
}

func (b *CircuitBreaker) Name() string {
	return b.name
}
