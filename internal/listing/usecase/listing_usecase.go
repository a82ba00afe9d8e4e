package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	brokerdomain "outreach-backend/internal/broker/domain"
	"outreach-backend/internal/listing/domain"
	"outreach-backend/internal/listing/dto"
	"outreach-backend/internal/listing/repository"
	"outreach-backend/pkg/imap"
	"outreach-backend/pkg/redfin"
	"outreach-backend/pkg/validator"

	"github.com/sirupsen/logrus"
)

type listingUsecase struct {
	listingRepo  repository.ListingRepository
	brokers      BrokerRegistry
	alertFetcher AlertFetcher
}

func NewListingUsecase(listingRepo repository.ListingRepository, brokers BrokerRegistry) ListingUsecase {
	return &listingUsecase{
		listingRepo: listingRepo,
		brokers:     brokers,
	}
}

func (u *listingUsecase) SetAlertFetcher(fetcher AlertFetcher) {
	u.alertFetcher = fetcher
}

func (u *listingUsecase) UpsertListing(candidate *domain.ListingCandidate) (*domain.Listing, error) {
	candidate.SourceURL = strings.TrimSpace(candidate.SourceURL)
	if err := validator.ValidateStruct(candidate); err != nil {
		return nil, err
	}

	existing, err := u.listingRepo.FindBySourceURL(candidate.SourceURL)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		listing := &domain.Listing{
			SourceURL:      candidate.SourceURL,
			Address:        candidate.Address,
			City:           candidate.City,
			State:          candidate.State,
			Zipcode:        candidate.Zipcode,
			Price:          candidate.Price,
			Beds:           candidate.Beds,
			Baths:          candidate.Baths,
			Sqft:           candidate.Sqft,
			Status:         domain.NormalizeStatus(candidate.Status),
			ListingDate:    candidate.ListingDate,
			SaleDate:       candidate.SaleDate,
			SourcePlatform: candidate.SourcePlatform,
		}
		if err := u.listingRepo.Create(listing); err != nil {
			return nil, fmt.Errorf("failed to create listing: %w", err)
		}
		return listing, nil
	}

	mergeListing(existing, candidate)
	if err := u.listingRepo.Update(existing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return existing, nil
}

// mergeListing refreshes stored attributes with the non-empty candidate values.
// An empty status leaves the stored status alone.
func mergeListing(l *domain.Listing, c *domain.ListingCandidate) {
	setString := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	setString(&l.Address, c.Address)
	setString(&l.City, c.City)
	setString(&l.State, c.State)
	setString(&l.Zipcode, c.Zipcode)
	setString(&l.Beds, c.Beds)
	setString(&l.Baths, c.Baths)
	setString(&l.SourcePlatform, c.SourcePlatform)

	if c.Price != nil {
		l.Price = c.Price
	}
	if c.Sqft != nil {
		l.Sqft = c.Sqft
	}
	if c.ListingDate != nil {
		l.ListingDate = c.ListingDate
	}
	if c.SaleDate != nil {
		l.SaleDate = c.SaleDate
	}
	if strings.TrimSpace(c.Status) != "" {
		l.Status = domain.NormalizeStatus(c.Status)
	}
}

func (u *listingUsecase) LinkBroker(brokerID, listingID string, role domain.Role) error {
	return u.listingRepo.LinkBroker(&domain.BrokerListing{
		BrokerID:  brokerID,
		ListingID: listingID,
		Role:      role,
	})
}

func (u *listingUsecase) ImportCandidates(candidates []domain.ListingCandidate) *dto.ImportResult {
	result := &dto.ImportResult{Errors: []string{}}

	for i := range candidates {
		c := &candidates[i]
		listing, err := u.UpsertListing(c)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", c.SourceURL, err))
			continue
		}
		result.Listings++

		for _, agent := range c.Agents {
			broker, err := u.resolveAgent(agent, listing.ID)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: agent %q: %v", c.SourceURL, agent.Name, err))
				continue
			}
			if broker == nil {
				continue
			}
			result.Brokers++

			if err := u.LinkBroker(broker.ID, listing.ID, domain.NormalizeRole(agent.Role)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: link %s: %v", c.SourceURL, broker.ID, err))
				continue
			}
			result.Links++
		}
	}

	logrus.WithFields(logrus.Fields{
		"listings": result.Listings,
		"brokers":  result.Brokers,
		"links":    result.Links,
		"errors":   len(result.Errors),
	}).Info("Listing import finished")

	return result
}

// resolveAgent finds or creates the broker behind a listing agent. Agents
// without a license are matched by email only; unknown ones are skipped.
func (u *listingUsecase) resolveAgent(agent domain.AgentCandidate, listingID string) (*brokerdomain.Broker, error) {
	if strings.TrimSpace(agent.LicenseNumber) == "" {
		if agent.Email == "" {
			return nil, nil
		}
		return u.brokers.FindByEmail(agent.Email)
	}

	return u.brokers.UpsertBroker(&brokerdomain.BrokerCandidate{
		LicenseNumber: agent.LicenseNumber,
		Name:          agent.Name,
		BrokerageName: agent.BrokerageName,
		Phone:         agent.Phone,
		Email:         agent.Email,
		Source:        brokerdomain.SourceScrape,
	}, &listingID)
}

func (u *listingUsecase) IngestAlerts(ctx context.Context, since time.Time) (*dto.ImportResult, error) {
	if u.alertFetcher == nil || !u.alertFetcher.Configured() {
		return nil, imap.ErrNotConfigured
	}

	alerts, err := u.alertFetcher.FetchUnseen(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing alerts: %w", err)
	}

	result := &dto.ImportResult{Errors: []string{}}
	for _, alert := range alerts {
		result.Alerts++

		found, err := redfin.ParseAlert(alert.HTML)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("alert %d: %v", alert.UID, err))
			continue
		}

		for _, l := range found {
			candidate := &domain.ListingCandidate{
				SourceURL:      l.URL,
				Address:        l.Address,
				City:           l.City,
				State:          l.State,
				Zipcode:        l.Zipcode,
				Price:          l.Price,
				Beds:           l.Beds,
				Baths:          l.Baths,
				Sqft:           l.Sqft,
				SourcePlatform: redfin.Platform,
			}
			if _, err := u.UpsertListing(candidate); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", l.URL, err))
				continue
			}
			result.Listings++
		}
	}

	logrus.WithFields(logrus.Fields{
		"alerts":   result.Alerts,
		"listings": result.Listings,
		"errors":   len(result.Errors),
	}).Info("Listing alerts ingested")

	return result, nil
}

func (u *listingUsecase) GetListing(id string) (*domain.Listing, error) {
	listing, err := u.listingRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

func (u *listingUsecase) ListListings(status string, limit, offset int) ([]*domain.Listing, int64, error) {
	if status == "" {
		return u.listingRepo.List(nil, limit, offset)
	}
	s := domain.NormalizeStatus(status)
	return u.listingRepo.List(&s, limit, offset)
}

func (u *listingUsecase) GetListingsByIDs(ids []string) ([]*domain.Listing, error) {
	return u.listingRepo.FindByIDs(ids)
}

func (u *listingUsecase) GetBrokerListings(brokerID string) ([]*domain.BrokerListing, error) {
	return u.listingRepo.FindBrokerListings(brokerID)
}
