package usecase

import (
	"context"
	"errors"
	"testing"

	emaildomain "outreach-backend/internal/email/domain"
	"outreach-backend/internal/email/repository"
	"outreach-backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStyleIndex struct {
	upserts []string
	err     error
	similar []string
}

func (f *fakeStyleIndex) UpsertSentEmail(ctx context.Context, suggestedEmailID, brokerID, template, tone, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, suggestedEmailID)
	return nil
}

func (f *fakeStyleIndex) SimilarEmails(ctx context.Context, template, query string, limit int) ([]string, error) {
	return f.similar, f.err
}

func newStyleWorker(t *testing.T) (*StyleWorkerService, repository.StyleIndexHistoryRepository) {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&emaildomain.StyleIndexHistory{}))
	history := repository.NewStyleIndexHistoryRepository(db)
	return NewStyleWorkerService(history, 1), history
}

func TestStyleWorker_IndexesOnce(t *testing.T) {
	worker, history := newStyleWorker(t)
	index := &fakeStyleIndex{}
	worker.SetStyleIndex(index)

	job := StyleJob{SuggestedEmailID: "s1", BrokerID: "b1", Template: "sale-listing", Subject: "Hi", Body: "Body"}
	worker.processJob(job)
	worker.processJob(job)

	assert.Equal(t, []string{"s1"}, index.upserts)
	ids, err := history.ListIndexedIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestStyleWorker_FailedUpsertIsForgotten(t *testing.T) {
	worker, history := newStyleWorker(t)
	worker.SetStyleIndex(&fakeStyleIndex{err: errors.New("embedding quota")})

	worker.processJob(StyleJob{SuggestedEmailID: "s1", Template: "sale-listing"})

	ids, err := history.ListIndexedIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStyleWorker_QueueAndStop(t *testing.T) {
	worker, history := newStyleWorker(t)
	index := &fakeStyleIndex{}

	assert.False(t, worker.QueueJob(StyleJob{SuggestedEmailID: "s0"}), "no index configured")

	worker.SetStyleIndex(index)
	worker.Start()
	assert.True(t, worker.QueueJob(StyleJob{SuggestedEmailID: "s1", Template: "sale-pending"}))
	worker.Stop()

	assert.Equal(t, []string{"s1"}, index.upserts)
	ids, err := history.ListIndexedIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.False(t, worker.QueueJob(StyleJob{SuggestedEmailID: "s2"}))
}

func TestStyleWorker_SimilarEmailIDs(t *testing.T) {
	worker, _ := newStyleWorker(t)
	assert.Nil(t, worker.SimilarEmailIDs(context.Background(), "sale-listing", "q", 2))

	worker.SetStyleIndex(&fakeStyleIndex{similar: []string{"a", "b"}})
	assert.Equal(t, []string{"a", "b"}, worker.SimilarEmailIDs(context.Background(), "sale-listing", "q", 2))

	worker.SetStyleIndex(&fakeStyleIndex{err: errors.New("down")})
	assert.Nil(t, worker.SimilarEmailIDs(context.Background(), "sale-listing", "q", 2))
}
