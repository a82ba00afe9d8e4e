package usecase

import (
	"context"
	"sync"
	"time"

	"outreach-backend/internal/email/repository"

	"github.com/sirupsen/logrus"
)

// StyleIndex stores sent outreach emails for similarity lookups.
type StyleIndex interface {
	UpsertSentEmail(ctx context.Context, suggestedEmailID, brokerID, template, tone, subject, body string) error
	SimilarEmails(ctx context.Context, template, query string, limit int) ([]string, error)
}

// StyleJob is one sent email waiting to be embedded.
type StyleJob struct {
	SuggestedEmailID string
	BrokerID         string
	Template         string
	Tone             string
	Subject          string
	Body             string
}

// StyleWorkerService embeds sent emails in the background so sending never
// waits on the embedding API.
type StyleWorkerService struct {
	historyRepo repository.StyleIndexHistoryRepository
	index       StyleIndex
	jobQueue    chan StyleJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	stopped     bool
	mu          sync.Mutex
	log         *logrus.Entry
}

func NewStyleWorkerService(historyRepo repository.StyleIndexHistoryRepository, workerCount int) *StyleWorkerService {
	if workerCount <= 0 {
		workerCount = 2
	}
	return &StyleWorkerService{
		historyRepo: historyRepo,
		jobQueue:    make(chan StyleJob, 200),
		workerCount: workerCount,
		log:         logrus.WithField("component", "style_worker"),
	}
}

// SetStyleIndex sets the vector index; without one jobs are dropped.
func (s *StyleWorkerService) SetStyleIndex(index StyleIndex) {
	s.index = index
}

func (s *StyleWorkerService) Enabled() bool {
	return s != nil && s.index != nil
}

func (s *StyleWorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	s.log.WithField("workers", s.workerCount).Info("Style index workers started")
}

// Stop drains the queue and waits for the workers.
func (s *StyleWorkerService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.jobQueue)
	s.mu.Unlock()

	s.workerWg.Wait()
	s.log.Info("Style index workers stopped")
}

func (s *StyleWorkerService) worker(id int) {
	defer s.workerWg.Done()
	for job := range s.jobQueue {
		s.processJob(job)
	}
}

func (s *StyleWorkerService) processJob(job StyleJob) {
	if s.index == nil {
		return
	}

	alreadyIndexed, err := s.historyRepo.EnsureIndexed(job.SuggestedEmailID, job.Template)
	if err != nil {
		s.log.WithError(err).WithField("suggested_email_id", job.SuggestedEmailID).Warn("Failed to check style index history")
		return
	}
	if alreadyIndexed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = s.index.UpsertSentEmail(ctx, job.SuggestedEmailID, job.BrokerID, job.Template, job.Tone, job.Subject, job.Body)
	if err != nil {
		s.log.WithError(err).WithField("suggested_email_id", job.SuggestedEmailID).Warn("Failed to index sent email")
		// let a later send or reindex try again
		if err := s.historyRepo.Forget(job.SuggestedEmailID); err != nil {
			s.log.WithError(err).Warn("Failed to forget style index history")
		}
		return
	}

	s.log.WithField("suggested_email_id", job.SuggestedEmailID).Debug("Indexed sent email")
}

// QueueJob adds a job without blocking; false means the queue is full or closed.
func (s *StyleWorkerService) QueueJob(job StyleJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.index == nil {
		return false
	}

	select {
	case s.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SimilarEmailIDs returns sent emails of the same template that read closest
// to query. An index outage yields no examples rather than an error.
func (s *StyleWorkerService) SimilarEmailIDs(ctx context.Context, template, query string, limit int) []string {
	if !s.Enabled() || limit <= 0 {
		return nil
	}
	ids, err := s.index.SimilarEmails(ctx, template, query, limit)
	if err != nil {
		s.log.WithError(err).Warn("Style index lookup failed")
		return nil
	}
	return ids
}
