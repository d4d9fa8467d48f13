package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensOnThreshold(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker("spot", 3, time.Minute)
	assert.False(t, b.IsOpen())

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.False(t, b.IsOpen())

	// Третья ошибка открывает брейкер, и ровно один раз.
	assert.True(t, b.RecordFailure())
	assert.True(t, b.IsOpen())
	assert.False(t, b.RecordFailure())
}

func TestBreakerResetsOnSuccess(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker("option", 2, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.RecordSuccess()
	assert.False(t, b.IsOpen())
	assert.False(t, b.RecordFailure())
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker("spot", 2, 10*time.Millisecond)
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	time.Sleep(20 * time.Millisecond)

	// Таймаут истёк: одна попытка пропускается.
	assert.False(t, b.IsOpen())

	// Неудачная проба снова открывает брейкер.
	assert.True(t, b.RecordFailure())
	assert.True(t, b.IsOpen())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, b.IsOpen())
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
}
