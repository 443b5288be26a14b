package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/database"
)

// fetchTimeout bounds one polling round.
const fetchTimeout = 10 * time.Minute

// Poller fetches all sources on the interval stored in settings.
type Poller struct {
	fetcher *Fetcher
	db      database.Store
	unit    time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPoller creates a background poller.
func NewPoller(db database.Store, fetcher *Fetcher) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		fetcher: fetcher,
		db:      db,
		unit:    time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins the polling loop. The first round runs immediately.
func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			interval, err := p.db.GetPollingInterval()
			if err != nil || interval < database.MinPollingInterval {
				interval = database.MinPollingInterval
			}

			ctx, cancel := context.WithTimeout(p.ctx, fetchTimeout)
			results, err := p.fetcher.FetchAll(ctx)
			cancel()

			if err != nil {
				log.Error().Err(err).Msg("Poller round failed")
			} else {
				total := 0
				for _, c := range results {
					total += c
				}
				log.Info().Int("new_camps", total).Int("sources", len(results)).Int("interval_minutes", interval).Msg("Poller round finished")
			}

			timer := time.NewTimer(time.Duration(interval) * p.unit)
			select {
			case <-p.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// Stop cancels any in-flight round and waits for the loop to exit.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	p.wg.Wait()
}
