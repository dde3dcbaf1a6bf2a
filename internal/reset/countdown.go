package reset

import (
	"context"
	"sync/atomic"
	"time"
)

// Countdown decrementa o tempo restante a cada intervalo até zerar ou ser parado.
type Countdown struct {
	cancel    context.CancelFunc
	done      chan struct{}
	remaining atomic.Int64
}

func startCountdown(total, interval time.Duration, onTick func(time.Duration), onZero func()) *Countdown {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Countdown{cancel: cancel, done: make(chan struct{})}
	c.remaining.Store(int64(total))
	go c.run(ctx, interval, onTick, onZero)
	return c
}

func (c *Countdown) run(ctx context.Context, interval time.Duration, onTick func(time.Duration), onZero func()) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			left := time.Duration(c.remaining.Add(-int64(interval)))
			if left < 0 {
				left = 0
				c.remaining.Store(0)
			}
			if ctx.Err() != nil {
				return
			}
			if onTick != nil {
				onTick(left)
			}
			if left == 0 {
				if onZero != nil {
					onZero()
				}
				return
			}
		}
	}
}

// Remaining devolve o tempo restante.
func (c *Countdown) Remaining() time.Duration {
	return time.Duration(c.remaining.Load())
}

// Stop cancela a contagem e aguarda o fim da goroutine.
func (c *Countdown) Stop() {
	c.cancel()
	<-c.done
}
