package ghm

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

type sample[R any] struct {
	ts time.Time
	v  R
}

// MemoryConsumer keeps the readings of the last period minutes in arrival
// order.
type MemoryConsumer[R any] struct {
	period int

	debug bool
	now   func() time.Time
	lock  sync.Mutex
	data  []sample[R]

	cleanup context.CancelFunc
}

func (mc *MemoryConsumer[R]) Setup(cmd *cobra.Command, name string) {
	cmd.PersistentFlags().IntVar(&mc.period, "period", 60, "Period minutes to keep memory cache")
}

func (mc *MemoryConsumer[R]) Init(d bool) error {
	mc.debug = d
	if mc.now == nil {
		mc.now = time.Now
	}
	if mc.period <= 0 {
		mc.period = 60
	}

	var ctx context.Context
	ctx, mc.cleanup = context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute * time.Duration(mc.period) / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mc.clearCache()
			}
		}
	}()
	return nil
}

func (mc *MemoryConsumer[R]) Consume(v R) error {
	mc.lock.Lock()
	defer mc.lock.Unlock()
	mc.data = append(mc.data, sample[R]{ts: mc.now(), v: v})
	if mc.debug {
		log.Printf("Consumed %v", v)
	}
	return nil
}

func (mc *MemoryConsumer[R]) Close() error {
	if mc.cleanup != nil {
		mc.cleanup()
	}
	return nil
}

func (mc *MemoryConsumer[R]) clearCache() {
	mc.lock.Lock()
	defer mc.lock.Unlock()
	dl := mc.now().Add(-time.Minute * time.Duration(mc.period))
	i := sort.Search(len(mc.data), func(i int) bool { return !mc.data[i].ts.Before(dl) })
	if i > 0 {
		mc.data = append([]sample[R]{}, mc.data[i:]...)
	}
}

// Last returns the most recent reading and whether there is one.
func (mc *MemoryConsumer[R]) Last() (R, bool) {
	mc.lock.Lock()
	defer mc.lock.Unlock()
	if len(mc.data) == 0 {
		var zero R
		return zero, false
	}
	return mc.data[len(mc.data)-1].v, true
}

func (mc *MemoryConsumer[R]) Len() int {
	mc.lock.Lock()
	defer mc.lock.Unlock()
	return len(mc.data)
}

// Data converts the kept readings to entries ordered by their "ts" value,
// a unix timestamp in seconds.
func (mc *MemoryConsumer[R]) Data(conv func(R) Entry) []Entry {
	if conv == nil {
		conv = func(r R) Entry { return Entry{"value": r} }
	}
	mc.lock.Lock()
	defer mc.lock.Unlock()
	res := make([]Entry, 0, len(mc.data))
	for _, s := range mc.data {
		e := conv(s.v)
		e["ts"] = float64(s.ts.UnixMilli()) / 1000
		res = append(res, e)
	}
	return res
}
