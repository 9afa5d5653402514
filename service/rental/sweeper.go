package rental

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rentalrepo "github.com/diogo123310/lockeremergent/repository/rental"
	"github.com/robfig/cron/v3"
)

type expirer interface {
	ExpireAndRelease(ctx context.Context, rentalID, lockerID string) (bool, error)
}

// Sweeper periodically expires elapsed paid rentals and frees their lockers.
// It shares ExpireAndRelease with the unlock path, so racing the lazy-expiry
// branch converges on the same terminal state.
type Sweeper struct {
	rentals  rentalrepo.Repo
	svc      expirer
	interval time.Duration
	log      *slog.Logger

	cron *cron.Cron
	now  func() time.Time
}

func NewSweeper(rentals rentalrepo.Repo, svc Service, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		rentals:  rentals,
		svc:      svc,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

func (s *Sweeper) Start() error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Error("sweep tick failed", "err", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("expiry sweeper started", "interval", s.interval.String())
	return nil
}

// Stop halts the schedule and returns once any in-flight tick finished.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("expiry sweeper stopped")
}

// RunOnce performs a single sweep. One candidate failing does not stop the
// rest of the sweep, and a panicking tick must never kill the schedule.
func (s *Sweeper) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
		}
	}()

	candidates, err := s.rentals.FindExpiredCandidates(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("find expired rentals: %w", err)
	}

	for _, rt := range candidates {
		flipped, err := s.svc.ExpireAndRelease(ctx, rt.ID, rt.LockerID)
		if err != nil {
			s.log.Error("expire rental failed", "rental_id", rt.ID, "locker_number", rt.LockerNumber, "err", err)
			continue
		}
		if flipped {
			s.log.Info("rental expired", "rental_id", rt.ID, "locker_number", rt.LockerNumber)
		}
	}
	return nil
}
