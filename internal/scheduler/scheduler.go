package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/robfig/cron/v3"
)

// staleAfter is how long a profile may go without a heartbeat before the
// sweep marks it offline.
const staleAfter = 10 * time.Minute

type expiryScanner interface {
	RunExpiryScan(ctx context.Context) (*services.ExpiryScanResult, error)
}

type presenceSweeper interface {
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler owns the recurring jobs: the purchase expiry scan and the
// online-presence sweep.
type Scheduler struct {
	cron      *cron.Cron
	purchases expiryScanner
	profiles  presenceSweeper
}

func New(purchases expiryScanner, profiles presenceSweeper) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		purchases: purchases,
		profiles:  profiles,
	}
}

func (s *Scheduler) Start(expiryScanSpec, offlineSweepSpec string) error {
	if _, err := s.cron.AddFunc(expiryScanSpec, s.runExpiryScan); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(offlineSweepSpec, s.runOfflineSweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runExpiryScan() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := s.purchases.RunExpiryScan(ctx)
	if err != nil {
		log.Printf("expiry scan: %v", err)
		return
	}
	if result.Warned > 0 || result.Deactivated > 0 {
		log.Printf("expiry scan: %d expiring, %d warned, %d deactivated",
			result.Scanned, result.Warned, result.Deactivated)
	}
}

func (s *Scheduler) runOfflineSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.profiles.MarkStaleOffline(ctx, time.Now().UTC().Add(-staleAfter)); err != nil {
		log.Printf("offline sweep: %v", err)
	}
}
