package session

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type sweepable interface {
	Sweep(idle time.Duration) int
}

// Sweeper evicts idle sessions on a cron schedule. Extra housekeeping jobs
// can ride on the same schedule.
type Sweeper struct {
	cron *cron.Cron
}

func NewSweeper(spec string, target sweepable, idle time.Duration, extra ...func()) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := target.Sweep(idle); n > 0 {
			log.Printf("session sweeper: evicted %d idle sessions", n)
		}
		for _, fn := range extra {
			fn()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule session sweeper %q: %w", spec, err)
	}
	return &Sweeper{cron: c}, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
