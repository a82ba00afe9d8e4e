package usecase

import (
	"errors"
	"testing"
	"time"

	"outreach-backend/internal/broker/domain"
	"outreach-backend/internal/broker/repository"
	emaildomain "outreach-backend/internal/email/domain"
	listingdomain "outreach-backend/internal/listing/domain"
	outreachdomain "outreach-backend/internal/outreach/domain"
	"outreach-backend/pkg/database"
	"outreach-backend/pkg/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Broker{},
		&domain.BrokerEmail{},
		&listingdomain.Listing{},
		&listingdomain.BrokerListing{},
		&emaildomain.EmailMessage{},
		&outreachdomain.SuggestedEmail{},
		&outreachdomain.SentEmailLog{},
		&outreachdomain.SuppressionLog{},
	))
	return db
}

type fakeIndex struct {
	docs    []search.BrokerDocument
	results []string
	err     error
}

func (f *fakeIndex) IndexBrokers(docs []search.BrokerDocument) error {
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeIndex) SearchBrokers(query string, limit int64) ([]string, error) {
	return f.results, f.err
}

func TestUpsertBroker_CreatesAndAttachesEmail(t *testing.T) {
	uc := NewBrokerUsecase(repository.NewBrokerRepository(setupDB(t)))

	b, err := uc.UpsertBroker(&domain.BrokerCandidate{
		LicenseNumber: " 01234567 ",
		Name:          "Mia Torres",
		BrokerageName: "Compass",
		Email:         "Mia@Compass.com ",
		Source:        domain.SourceScrape,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "01234567", b.LicenseNumber)
	assert.Equal(t, "CA", b.LicenseState)
	require.Len(t, b.Emails, 1)
	assert.Equal(t, "mia@compass.com", b.Emails[0].Email)
	assert.True(t, b.Emails[0].IsPrimary)
}

func TestUpsertBroker_NamePrecedence(t *testing.T) {
	uc := NewBrokerUsecase(repository.NewBrokerRepository(setupDB(t)))

	_, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "M. Torres", Source: domain.SourceScrape}, nil)
	require.NoError(t, err)

	b, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "Mia T", Source: domain.SourceScrape}, nil)
	require.NoError(t, err)
	assert.Equal(t, "M. Torres", b.Name, "scrape must not overwrite an existing name")

	b, err = uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "Mia Torres", Source: domain.SourceDRE}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Mia Torres", b.Name)

	_, total, err := uc.ListBrokers(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestUpsertBroker_RequiresLicense(t *testing.T) {
	uc := NewBrokerUsecase(repository.NewBrokerRepository(setupDB(t)))
	_, err := uc.UpsertBroker(&domain.BrokerCandidate{Name: "Nobody"}, nil)
	assert.Error(t, err)
}

func TestAttachEmail(t *testing.T) {
	db := setupDB(t)
	uc := NewBrokerUsecase(repository.NewBrokerRepository(db))

	a, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "A"}, nil)
	require.NoError(t, err)
	b, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "2", Name: "B"}, nil)
	require.NoError(t, err)

	_, err = uc.AttachEmail(a.ID, "not-an-email", nil)
	assert.True(t, errors.Is(err, ErrInvalidEmail))

	first, err := uc.AttachEmail(a.ID, "a@x.com", nil)
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)

	second, err := uc.AttachEmail(a.ID, "a2@x.com", nil)
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	// seeing the same address again keeps its primary flag
	again, err := uc.AttachEmail(a.ID, "A@x.com", nil)
	require.NoError(t, err)
	assert.True(t, again.IsPrimary)

	// an address belongs to one broker at a time
	_, err = uc.AttachEmail(b.ID, "a2@x.com", nil)
	require.NoError(t, err)

	owner, err := uc.FindByEmail("a2@x.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, owner.ID)

	reloaded, err := uc.GetBroker(a.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Emails, 1)
	assert.Equal(t, "a@x.com", reloaded.PrimaryEmail())
}

func TestGetBroker_NotFound(t *testing.T) {
	uc := NewBrokerUsecase(repository.NewBrokerRepository(setupDB(t)))
	_, err := uc.GetBroker("missing")
	assert.True(t, errors.Is(err, ErrBrokerNotFound))
}

func TestSearchBrokers_FuzzyFallback(t *testing.T) {
	uc := NewBrokerUsecase(repository.NewBrokerRepository(setupDB(t)))
	_, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "Mia Torres", BrokerageName: "Compass"}, nil)
	require.NoError(t, err)
	_, err = uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "2", Name: "Pat Lee", BrokerageName: "Redfin"}, nil)
	require.NoError(t, err)

	results, err := uc.SearchBrokers("tores", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Mia Torres", results[0].Name)
}

func TestSearchBrokers_UsesIndex(t *testing.T) {
	uc := NewBrokerUsecase(repository.NewBrokerRepository(setupDB(t)))
	idx := &fakeIndex{}
	uc.SetSearchIndex(idx)

	mia, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "Mia Torres"}, nil)
	require.NoError(t, err)
	require.Len(t, idx.docs, 1)
	assert.Equal(t, "Mia Torres", idx.docs[0].Name)

	idx.results = []string{mia.ID, "gone"}
	results, err := uc.SearchBrokers("anything", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mia.ID, results[0].ID)

	idx.err = errors.New("down")
	results, err = uc.SearchBrokers("mia", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestListForOutreach(t *testing.T) {
	db := setupDB(t)
	uc := NewBrokerUsecase(repository.NewBrokerRepository(db))

	linked, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "Linked"}, nil)
	require.NoError(t, err)
	_, err = uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "2", Name: "Unlinked"}, nil)
	require.NoError(t, err)

	listing := &listingdomain.Listing{ID: uuid.New().String(), SourceURL: "https://www.redfin.com/x/home/1", Status: listingdomain.ListingStatusActive}
	require.NoError(t, db.Create(listing).Error)
	require.NoError(t, db.Create(&listingdomain.BrokerListing{
		ID:        uuid.New().String(),
		BrokerID:  linked.ID,
		ListingID: listing.ID,
		Role:      listingdomain.RoleSeller,
	}).Error)

	brokers, err := uc.ListForOutreach(10, "", time.Time{})
	require.NoError(t, err)
	require.Len(t, brokers, 1)
	assert.Equal(t, linked.ID, brokers[0].ID)

	single, err := uc.ListForOutreach(10, linked.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, single, 1)
}

func linkListing(t *testing.T, db *gorm.DB, brokerID string, linkedAt time.Time) {
	t.Helper()
	listing := &listingdomain.Listing{ID: uuid.New().String(), SourceURL: "https://www.redfin.com/x/home/" + uuid.New().String(), Status: listingdomain.ListingStatusActive}
	require.NoError(t, db.Create(listing).Error)
	require.NoError(t, db.Create(&listingdomain.BrokerListing{
		ID:        uuid.New().String(),
		BrokerID:  brokerID,
		ListingID: listing.ID,
		Role:      listingdomain.RoleSeller,
		CreatedAt: linkedAt,
	}).Error)
}

func TestListForOutreach_SkipsBrokersInCooldown(t *testing.T) {
	db := setupDB(t)
	uc := NewBrokerUsecase(repository.NewBrokerRepository(db))
	now := time.Now().UTC()

	mailed, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "Mailed"}, nil)
	require.NoError(t, err)
	linkListing(t, db, mailed.ID, now)
	replied, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "2", Name: "Outbound In Mailbox"}, nil)
	require.NoError(t, err)
	linkListing(t, db, replied.ID, now)
	failed, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "3", Name: "Failed Send"}, nil)
	require.NoError(t, err)
	linkListing(t, db, failed.ID, now.Add(-48*time.Hour))

	require.NoError(t, db.Create(&outreachdomain.SentEmailLog{
		ID: uuid.New().String(), BrokerID: mailed.ID, SendStatus: outreachdomain.SendStatusSent, SentAt: now.Add(-5 * 24 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&outreachdomain.SentEmailLog{
		ID: uuid.New().String(), BrokerID: failed.ID, SendStatus: outreachdomain.SendStatusFailed, SentAt: now.Add(-time.Hour),
	}).Error)
	brokerID := replied.ID
	require.NoError(t, db.Create(&emaildomain.EmailMessage{
		ID: uuid.New().String(), GmailMessageID: "m1", GmailThreadID: "t1", BrokerID: &brokerID,
		Direction: emaildomain.DirectionOutbound, SentAt: now.Add(-2 * 24 * time.Hour),
	}).Error)

	brokers, err := uc.ListForOutreach(10, "", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, brokers, 1)
	assert.Equal(t, failed.ID, brokers[0].ID)

	all, err := uc.ListForOutreach(10, "", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListForOutreach_LeastRecentlyEvaluatedFirst(t *testing.T) {
	db := setupDB(t)
	uc := NewBrokerUsecase(repository.NewBrokerRepository(db))
	now := time.Now().UTC()

	drafted, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "1", Name: "Drafted"}, nil)
	require.NoError(t, err)
	linkListing(t, db, drafted.ID, now)
	suppressed, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "2", Name: "Suppressed"}, nil)
	require.NoError(t, err)
	linkListing(t, db, suppressed.ID, now)
	fresh, err := uc.UpsertBroker(&domain.BrokerCandidate{LicenseNumber: "3", Name: "Never Evaluated"}, nil)
	require.NoError(t, err)
	linkListing(t, db, fresh.ID, now.Add(-90*24*time.Hour))

	require.NoError(t, db.Create(&outreachdomain.SuggestedEmail{
		ID: uuid.New().String(), BrokerID: drafted.ID, Status: outreachdomain.StatusSkipped, CreatedAt: now.Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&outreachdomain.SuppressionLog{
		ID: uuid.New().String(), BrokerID: suppressed.ID, Reason: "no_new_listings",
		Source: outreachdomain.SuppressionSourcePipeline, CreatedAt: now.Add(-3 * time.Hour),
	}).Error)

	brokers, err := uc.ListForOutreach(2, "", time.Time{})
	require.NoError(t, err)
	require.Len(t, brokers, 2)
	assert.Equal(t, fresh.ID, brokers[0].ID)
	assert.Equal(t, suppressed.ID, brokers[1].ID)
}
