package usecase

import (
	"context"
	"sync"
	"time"

	"outreach-backend/internal/outreach/repository"
	"outreach-backend/pkg/ai"
	"outreach-backend/pkg/config"

	"github.com/sirupsen/logrus"
)

type outreachUsecase struct {
	suggestedRepo   repository.SuggestedEmailRepository
	sentRepo        repository.SentEmailLogRepository
	suppressionRepo repository.SuppressionRepository
	brokers         BrokerSource
	listings        ListingSource
	history         HistorySource
	sender          MailSender
	rules           *config.Rules

	decider  ai.Decider
	notifier Notifier
	style    StyleIndex
	locker   RunLocker

	// delegate pacing is shared by batch runs and single evaluations
	pacerMu          sync.Mutex
	lastDelegateCall time.Time

	// one delivery at a time so the send loop and a manual send cannot both mail the same row
	sendMu sync.Mutex

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	log   *logrus.Entry
}

func NewOutreachUsecase(
	suggestedRepo repository.SuggestedEmailRepository,
	sentRepo repository.SentEmailLogRepository,
	suppressionRepo repository.SuppressionRepository,
	brokers BrokerSource,
	listings ListingSource,
	history HistorySource,
	sender MailSender,
	rules *config.Rules,
) OutreachUsecase {
	return &outreachUsecase{
		suggestedRepo:   suggestedRepo,
		sentRepo:        sentRepo,
		suppressionRepo: suppressionRepo,
		brokers:         brokers,
		listings:        listings,
		history:         history,
		sender:          sender,
		rules:           rules,
		now:             time.Now,
		sleep:           sleepCtx,
		log:             logrus.WithField("component", "outreach"),
	}
}

func (u *outreachUsecase) SetDecider(decider ai.Decider) {
	u.decider = decider
}

func (u *outreachUsecase) SetNotifier(notifier Notifier) {
	u.notifier = notifier
}

func (u *outreachUsecase) SetStyleIndex(style StyleIndex) {
	u.style = style
}

func (u *outreachUsecase) SetRunLocker(locker RunLocker) {
	u.locker = locker
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
