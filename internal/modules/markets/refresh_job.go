package markets

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/utils"
	"github.com/rs/zerolog"
)

// RefreshJob refreshes the price board on a schedule
type RefreshJob struct {
	board   *Board
	events  *events.Manager
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshJob creates a new price refresh job
func NewRefreshJob(board *Board, eventManager *events.Manager, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RefreshJob{
		board:   board,
		events:  eventManager,
		timeout: timeout,
		log:     log.With().Str("job", "price_refresh").Logger(),
	}
}

// Run executes one refresh
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	timer := utils.NewTimer("price_refresh", j.timeout/2, j.log)
	defer timer.Stop()

	snapshot, err := j.board.Refresh(ctx)
	if err != nil {
		data := &events.PriceRefreshFailedData{Error: err.Error()}
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			data.Status = fetchErr.Status
		}
		j.events.EmitTyped("markets", "", data)
		return err
	}

	j.events.EmitTyped("markets", "", &events.PriceUpdatedData{
		EventCount:  len(snapshot.Events),
		MarketCount: len(snapshot.Index),
	})
	return nil
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "price_refresh"
}
