package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
)

// DigestJobName is the name of the periodic digest job
const DigestJobName = "digest"

// DigestSender defines the interface for sending digests to teams.
// This interface allows the job to call the service without importing the
// service package directly.
type DigestSender interface {
	// SendDigests builds and delivers digest cards to every team whose
	// preference matches the given frequency. Returns counts of teams
	// the digest was sent to, failed for, and skipped.
	SendDigests(ctx context.Context, frequency domain.DigestFrequency) (sent int, failed int, skipped int, err error)
}

// DigestJob wakes daily and decides which digest frequencies are due:
// weekly runs on Mondays, monthly runs on the first day of the month.
type DigestJob struct {
	sender  DigestSender
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewDigestJob creates a new digest job.
// The timeout controls how long a single digest run is allowed to take.
func NewDigestJob(sender DigestSender, logger *zap.Logger, timeout time.Duration) *DigestJob {
	return &DigestJob{
		sender:  sender,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// DueFrequencies returns the digest frequencies due at the given time.
// Both can be due on the same day when the first of the month is a Monday.
func DueFrequencies(t time.Time) []domain.DigestFrequency {
	var due []domain.DigestFrequency
	if t.Weekday() == time.Monday {
		due = append(due, domain.DigestFrequencyWeekly)
	}
	if t.Day() == 1 {
		due = append(due, domain.DigestFrequencyMonthly)
	}
	return due
}

// Run executes the digest job. This is called by the scheduler according
// to the cron expression.
func (j *DigestJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := j.now()
	due := DueFrequencies(start)
	if len(due) == 0 {
		j.logger.Info("no digest due today")
		return
	}

	for _, frequency := range due {
		sent, failed, skipped, err := j.sender.SendDigests(ctx, frequency)
		if err != nil {
			j.logger.Error("digest run failed",
				zap.String("frequency", string(frequency)),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
			continue
		}

		j.logger.Info("digest run completed",
			zap.String("frequency", string(frequency)),
			zap.Int("sent", sent),
			zap.Int("failed", failed),
			zap.Int("skipped", skipped),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterDigestJob registers the digest job with the scheduler.
// The cronExpr should fire once per day; the job itself decides whether a
// weekly or monthly digest (or both) is due.
func RegisterDigestJob(scheduler *Scheduler, sender DigestSender, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewDigestJob(sender, logger, timeout)
	return scheduler.AddJob(DigestJobName, cronExpr, job.Run)
}
