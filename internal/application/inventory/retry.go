package inventory

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/piano-stock-api/internal/domain"
)

// RetryPolicy reintentos ante domain.ErrConcurrencyTimeout. MaxRetries = 0 desactiva los reintentos.
// Los errores de negocio nunca se reintentan.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy tres reintentos con backoff exponencial desde 50ms.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, InitialInterval: 50 * time.Millisecond, MaxInterval: time.Second}

// RunWithRetry ejecuta fn en una transacción y la repite solo si falló por timeout de bloqueo.
// fn debe construir todo su estado dentro del closure: cada intento parte de cero.
func RunWithRetry(ctx context.Context, runner TxRunner, policy RetryPolicy, fn func(TxRepos) error) error {
	if policy.MaxRetries == 0 {
		return runner.Run(ctx, fn)
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}

	op := func() error {
		err := runner.Run(ctx, fn)
		if err == nil || domain.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, policy.MaxRetries), ctx))
}
