package usecase

import (
	"fmt"
	"strings"
	"time"

	"outreach-backend/internal/broker/domain"
	"outreach-backend/internal/broker/repository"
	"outreach-backend/pkg/fuzzy"
	"outreach-backend/pkg/search"
	"outreach-backend/pkg/validator"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
)

type brokerUsecase struct {
	brokerRepo  repository.BrokerRepository
	searchIndex SearchIndex
}

func NewBrokerUsecase(brokerRepo repository.BrokerRepository) BrokerUsecase {
	return &brokerUsecase{brokerRepo: brokerRepo}
}

func (u *brokerUsecase) SetSearchIndex(index SearchIndex) {
	u.searchIndex = index
}

func (u *brokerUsecase) UpsertBroker(candidate *domain.BrokerCandidate, sourceListingID *string) (*domain.Broker, error) {
	candidate.LicenseNumber = strings.TrimSpace(candidate.LicenseNumber)
	if err := validator.ValidateStruct(candidate); err != nil {
		return nil, err
	}

	broker, err := u.brokerRepo.FindByLicense(candidate.LicenseNumber)
	if err != nil {
		return nil, err
	}

	if broker == nil {
		broker = &domain.Broker{
			LicenseNumber: candidate.LicenseNumber,
			Name:          strings.TrimSpace(candidate.Name),
			BrokerageName: strings.TrimSpace(candidate.BrokerageName),
			LicenseState:  strings.ToUpper(strings.TrimSpace(candidate.LicenseState)),
			Phone:         strings.TrimSpace(candidate.Phone),
		}
		if broker.LicenseState == "" {
			broker.LicenseState = "CA"
		}
		if err := u.brokerRepo.Create(broker); err != nil {
			return nil, fmt.Errorf("failed to create broker: %w", err)
		}
	} else {
		mergeCandidate(broker, candidate)
		if err := u.brokerRepo.Update(broker); err != nil {
			return nil, fmt.Errorf("failed to update broker: %w", err)
		}
	}

	if candidate.Email != "" {
		if _, err := u.AttachEmail(broker.ID, candidate.Email, sourceListingID); err != nil {
			logrus.WithFields(logrus.Fields{
				"broker_id": broker.ID,
				"email":     candidate.Email,
			}).WithError(err).Warn("Skipping broker email")
		}
	}

	// reload so callers see the attached emails
	fresh, err := u.brokerRepo.FindByID(broker.ID)
	if err != nil {
		return nil, err
	}
	u.indexBrokers(fresh)
	return fresh, nil
}

// mergeCandidate applies a candidate on top of a stored broker. Names from
// the licence register always win; other sources only fill a blank name.
func mergeCandidate(broker *domain.Broker, candidate *domain.BrokerCandidate) {
	if name := strings.TrimSpace(candidate.Name); name != "" {
		if candidate.Source == domain.SourceDRE || broker.Name == "" {
			broker.Name = name
		}
	}
	if v := strings.TrimSpace(candidate.BrokerageName); v != "" {
		broker.BrokerageName = v
	}
	if v := strings.ToUpper(strings.TrimSpace(candidate.LicenseState)); v != "" {
		broker.LicenseState = v
	}
	if v := strings.TrimSpace(candidate.Phone); v != "" {
		broker.Phone = v
	}
}

func (u *brokerUsecase) AttachEmail(brokerID, email string, sourceListingID *string) (*domain.BrokerEmail, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	existing, err := u.brokerRepo.FindEmail(email)
	if err != nil {
		return nil, err
	}

	record := &domain.BrokerEmail{
		BrokerID:        brokerID,
		Email:           email,
		SourceListingID: sourceListingID,
	}

	if existing != nil && existing.BrokerID == brokerID {
		record.IsPrimary = existing.IsPrimary
		record.FirstSeenAt = existing.FirstSeenAt
		if sourceListingID == nil {
			record.SourceListingID = existing.SourceListingID
		}
	} else {
		if existing != nil {
			logrus.WithFields(logrus.Fields{
				"email":       email,
				"from_broker": existing.BrokerID,
				"to_broker":   brokerID,
			}).Info("Broker email moved to another broker")
		}
		count, err := u.brokerRepo.CountEmails(brokerID)
		if err != nil {
			return nil, err
		}
		record.IsPrimary = count == 0
	}

	if err := u.brokerRepo.UpsertEmail(record); err != nil {
		return nil, fmt.Errorf("failed to save broker email: %w", err)
	}
	// the upsert keeps the stored row's ID
	if existing != nil {
		record.ID = existing.ID
	}
	return record, nil
}

func (u *brokerUsecase) GetBroker(id string) (*domain.Broker, error) {
	broker, err := u.brokerRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if broker == nil {
		return nil, ErrBrokerNotFound
	}
	return broker, nil
}

func (u *brokerUsecase) FindByEmail(email string) (*domain.Broker, error) {
	return u.brokerRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
}

func (u *brokerUsecase) ListBrokers(limit, offset int) ([]*domain.Broker, int64, error) {
	return u.brokerRepo.List(limit, offset)
}

func (u *brokerUsecase) SearchBrokers(query string, limit int) ([]*domain.Broker, error) {
	if limit <= 0 {
		limit = 20
	}

	if u.searchIndex != nil {
		ids, err := u.searchIndex.SearchBrokers(query, int64(limit))
		if err == nil {
			return u.brokersInOrder(ids)
		}
		logrus.WithError(err).Warn("Search index unavailable, falling back to fuzzy search")
	}

	brokers, err := u.brokerRepo.ListAll()
	if err != nil {
		return nil, err
	}
	fields := make([]fuzzy.BrokerFields, len(brokers))
	for i, b := range brokers {
		fields[i] = brokerFields(b)
	}
	return u.brokersInOrder(fuzzy.RankBrokers(query, fields, limit))
}

func (u *brokerUsecase) brokersInOrder(ids []string) ([]*domain.Broker, error) {
	brokers, err := u.brokerRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Broker, len(brokers))
	for _, b := range brokers {
		byID[b.ID] = b
	}
	result := make([]*domain.Broker, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			result = append(result, b)
		}
	}
	return result, nil
}

func (u *brokerUsecase) ListForOutreach(limit int, brokerID string, contactedSince time.Time) ([]*domain.Broker, error) {
	if brokerID != "" {
		broker, err := u.GetBroker(brokerID)
		if err != nil {
			return nil, err
		}
		return []*domain.Broker{broker}, nil
	}
	return u.brokerRepo.ListForOutreach(limit, contactedSince)
}

func (u *brokerUsecase) ListWithEmails() ([]*domain.Broker, error) {
	return u.brokerRepo.ListWithEmails()
}

func (u *brokerUsecase) MarkGmailSynced(id string, at time.Time) error {
	return u.brokerRepo.MarkGmailSynced(id, at)
}

func (u *brokerUsecase) ReindexSearch() error {
	if u.searchIndex == nil {
		return nil
	}
	brokers, err := u.brokerRepo.ListAll()
	if err != nil {
		return err
	}
	docs := make([]search.BrokerDocument, len(brokers))
	for i, b := range brokers {
		docs[i] = brokerDocument(b)
	}
	return u.searchIndex.IndexBrokers(docs)
}

func (u *brokerUsecase) indexBrokers(brokers ...*domain.Broker) {
	if u.searchIndex == nil {
		return
	}
	docs := make([]search.BrokerDocument, 0, len(brokers))
	for _, b := range brokers {
		if b != nil {
			docs = append(docs, brokerDocument(b))
		}
	}
	if err := u.searchIndex.IndexBrokers(docs); err != nil {
		logrus.WithError(err).Warn("Failed to index brokers")
	}
}

func emailList(b *domain.Broker) []string {
	emails := make([]string, len(b.Emails))
	for i, e := range b.Emails {
		emails[i] = e.Email
	}
	return emails
}

func brokerFields(b *domain.Broker) fuzzy.BrokerFields {
	return fuzzy.BrokerFields{
		ID:            b.ID,
		Name:          b.Name,
		BrokerageName: b.BrokerageName,
		LicenseNumber: b.LicenseNumber,
		Emails:        emailList(b),
	}
}

func brokerDocument(b *domain.Broker) search.BrokerDocument {
	return search.BrokerDocument{
		ID:            b.ID,
		Name:          b.Name,
		BrokerageName: b.BrokerageName,
		LicenseNumber: b.LicenseNumber,
		LicenseState:  b.LicenseState,
		Emails:        emailList(b),
	}
}
