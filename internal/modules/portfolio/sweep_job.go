package portfolio

import (
	"time"

	"github.com/rs/zerolog"
)

// SweepJob drops browser sessions that have been idle longer than the timeout.
// Signed-out wallets of dropped sessions are discarded.
type SweepJob struct {
	sessions *Sessions
	timeout  time.Duration
	log      zerolog.Logger
}

// NewSweepJob creates a new session sweep job
func NewSweepJob(sessions *Sessions, timeout time.Duration, log zerolog.Logger) *SweepJob {
	return &SweepJob{
		sessions: sessions,
		timeout:  timeout,
		log:      log.With().Str("job", "session_sweep").Logger(),
	}
}

// Run removes idle sessions
func (j *SweepJob) Run() error {
	dropped := j.sessions.Sweep(time.Now().Add(-j.timeout))
	if dropped > 0 {
		j.log.Info().
			Int("dropped", dropped).
			Int("remaining", j.sessions.Count()).
			Msg("Swept idle sessions")
	}
	return nil
}

// Name returns the job name
func (j *SweepJob) Name() string {
	return "session_sweep"
}
