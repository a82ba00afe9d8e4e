package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	emaildomain "outreach-backend/internal/email/domain"
	emaildto "outreach-backend/internal/email/dto"
	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
	"outreach-backend/internal/outreach/usecase"
	"outreach-backend/pkg/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	dailyRunTimeout = 2 * time.Hour
	syncTimeout     = 5 * time.Minute
	sendBatchSize   = 20
)

// Pipeline is the part of the outreach usecase the scheduler drives.
type Pipeline interface {
	RunBatch(ctx context.Context, req dto.RunRequest) (*domain.BatchResult, error)
	SendDue(ctx context.Context, limit int) (*dto.SendDueResult, error)
}

// MailboxSync pulls new mailbox history.
type MailboxSync interface {
	IncrementalSync(ctx context.Context) (*emaildto.SyncResult, error)
}

// Scheduler runs the daily pipeline and the periodic mailbox sync on cron,
// and the send loop on a ticker.
type Scheduler struct {
	cron      *cron.Cron
	pipeline  Pipeline
	sync      MailboxSync
	rules     *config.Rules
	stopChan  chan struct{}
	senderWg  sync.WaitGroup
	isRunning bool
	log       *logrus.Entry
}

func NewScheduler(pipeline Pipeline, mailboxSync MailboxSync, rules *config.Rules) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		pipeline: pipeline,
		sync:     mailboxSync,
		rules:    rules,
		stopChan: make(chan struct{}),
		log:      logrus.WithField("component", "scheduler"),
	}
}

func (s *Scheduler) Start() error {
	if s.rules.Schedule.DailyRunEnabled {
		spec, err := ParseDailyRunTime(s.rules.Schedule.DailyRunTime)
		if err != nil {
			return err
		}
		if _, err := s.cron.AddFunc(spec, s.runDaily); err != nil {
			return fmt.Errorf("failed to schedule daily run: %w", err)
		}
		s.log.WithFields(logrus.Fields{
			"at":   s.rules.Schedule.DailyRunTime,
			"cron": spec,
		}).Info("Daily outreach run scheduled")
	}

	if interval := s.rules.Sync.GetIncrementalInterval(); interval > 0 && s.sync != nil {
		if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.runIncrementalSync); err != nil {
			return fmt.Errorf("failed to schedule mailbox sync: %w", err)
		}
		s.log.WithField("every", interval.String()).Info("Mailbox sync scheduled")
	}

	s.cron.Start()
	s.isRunning = true

	if s.rules.Sender.Enabled {
		s.senderWg.Add(1)
		go s.sendLoop(s.rules.Sender.GetInterval())
	} else {
		s.log.Info("Send loop disabled, approved emails are sent by hand")
	}
	return nil
}

// Stop waits for running jobs and the send loop to finish.
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	close(s.stopChan)
	s.senderWg.Wait()
	s.isRunning = false
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), dailyRunTimeout)
	defer cancel()

	s.log.Info("Starting daily outreach run")
	result, err := s.pipeline.RunBatch(ctx, dto.RunRequest{})
	if err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			s.log.Warn("Daily outreach run skipped, another run is in progress")
			return
		}
		s.log.WithError(err).Error("Daily outreach run failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"evaluated": result.Evaluated,
		"send":      result.Sent,
		"skip":      result.Skipped,
		"error":     result.Errors,
	}).Info("Daily outreach run finished")
}

func (s *Scheduler) runIncrementalSync() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if _, err := s.sync.IncrementalSync(ctx); err != nil {
		if errors.Is(err, emaildomain.ErrBootstrapRequired) {
			s.log.Warn("Mailbox needs a bootstrap sync before incremental syncs can run")
			return
		}
		s.log.WithError(err).Error("Incremental mailbox sync failed")
	}
}

func (s *Scheduler) sendLoop(interval time.Duration) {
	defer s.senderWg.Done()
	s.log.WithField("interval", interval.String()).Info("Send loop started")

	s.sendDue()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sendDue()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) sendDue() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := s.pipeline.SendDue(ctx, sendBatchSize); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).Error("Send loop pass failed")
	}
}

// ParseDailyRunTime converts "HH:MM" into a daily cron spec.
func ParseDailyRunTime(timeStr string) (string, error) {
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return "", fmt.Errorf("invalid daily run time %q, want HH:MM", timeStr)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}
