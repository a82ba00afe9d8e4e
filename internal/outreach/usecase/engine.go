package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	brokerdomain "outreach-backend/internal/broker/domain"
	emaildomain "outreach-backend/internal/email/domain"
	listingdomain "outreach-backend/internal/listing/domain"
	"outreach-backend/internal/outreach/domain"
	"outreach-backend/pkg/ai"
	"outreach-backend/pkg/config"
	"outreach-backend/pkg/fcm"
	"outreach-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

// ClassifyTone buckets the relationship. Precedence: heavy inbound, any
// inbound, outbound only, nothing.
func ClassifyTone(inbound, outbound, heavyThreshold int) domain.Tone {
	switch {
	case inbound > heavyThreshold:
		return domain.ToneClient
	case inbound > 0:
		return domain.ToneEngaged
	case outbound > 0:
		return domain.ToneOutboundOnly
	default:
		return domain.ToneCold
	}
}

// SelectTemplate picks the pitch from the new listings only.
func SelectTemplate(newLinks []*listingdomain.BrokerListing) domain.Template {
	pending := false
	for _, link := range newLinks {
		if link.Listing == nil {
			continue
		}
		if link.Role == listingdomain.RoleBuyer && link.Listing.Status == listingdomain.ListingStatusSold {
			return domain.TemplateBuyerClosed
		}
		if link.Listing.Status == listingdomain.ListingStatusPending {
			pending = true
		}
	}
	if pending {
		return domain.TemplateSalePending
	}
	return domain.TemplateSaleListing
}

// contactEmail is the address outreach goes to: the primary one unless it is
// excluded, else the most recently seen usable one.
func contactEmail(broker *brokerdomain.Broker, rules *config.OutreachRules) string {
	var best *brokerdomain.BrokerEmail
	for i := range broker.Emails {
		e := &broker.Emails[i]
		if e.Email == "" || rules.IsExcluded(e.Email) {
			continue
		}
		if e.IsPrimary {
			return e.Email
		}
		if best == nil || e.LastSeenAt.After(best.LastSeenAt) {
			best = e
		}
	}
	if best == nil {
		return ""
	}
	return best.Email
}

// splitListings separates links whose listing was already used for the
// broker. newIDs keeps first-seen order without duplicates.
func splitListings(links []*listingdomain.BrokerListing, used map[string]struct{}) (newLinks, usedLinks []*listingdomain.BrokerListing, newIDs []string) {
	seen := make(map[string]struct{})
	for _, link := range links {
		if _, ok := used[link.ListingID]; ok {
			usedLinks = append(usedLinks, link)
			continue
		}
		newLinks = append(newLinks, link)
		if _, ok := seen[link.ListingID]; !ok {
			seen[link.ListingID] = struct{}{}
			newIDs = append(newIDs, link.ListingID)
		}
	}
	return newLinks, usedLinks, newIDs
}

func latest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

func (u *outreachUsecase) evaluate(ctx context.Context, broker *brokerdomain.Broker, dryRun bool) (*domain.Evaluation, error) {
	eval := &domain.Evaluation{BrokerID: broker.ID, BrokerName: broker.Name, DryRun: dryRun}
	rules := &u.rules.Outreach

	toEmail := contactEmail(broker, rules)
	if toEmail == "" {
		return u.suppress(eval, domain.ReasonNoEmail, domain.SuppressionSourcePipeline, nil, nil)
	}

	links, err := u.listings.GetBrokerListings(broker.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	// skipped drafts count as used too
	used, err := u.suggestedRepo.UsedListingIDs(broker.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load used listings: %w", err)
	}

	newLinks, usedLinks, newIDs := splitListings(links, used)
	eval.NewListingIDs = newIDs
	newCount := len(newIDs)
	if newCount == 0 {
		return u.suppress(eval, domain.ReasonNoNewListings, domain.SuppressionSourcePipeline, nil, &newCount)
	}

	summary, err := u.history.GetConversationSummary(broker.ID, rules.HistoryMessageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	lastSent, err := u.sentRepo.LastSentAt(broker.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last send: %w", err)
	}

	lastContact := latest(lastSent, summary.LastOutboundAt)
	var days *int
	if lastContact != nil {
		elapsed := u.now().Sub(*lastContact)
		d := int(elapsed.Hours() / 24)
		if d < 0 {
			d = 0
		}
		days = &d
		eval.DaysSinceLastContact = days
		if elapsed < rules.GetCooldown() {
			return u.suppress(eval, domain.ReasonTooRecent, domain.SuppressionSourcePipeline, days, &newCount)
		}
	}

	if rules.SkipWhenPendingDraft {
		pending, err := u.suggestedRepo.HasPendingDraft(broker.ID)
		if err != nil {
			return nil, err
		}
		if pending {
			return u.suppress(eval, domain.ReasonPendingDraft, domain.SuppressionSourcePipeline, days, &newCount)
		}
	}

	eval.Tone = ClassifyTone(summary.ReceivedCount, summary.SentCount, rules.HeavyInboundThreshold)
	eval.Template = SelectTemplate(newLinks)

	if dryRun {
		eval.Verdict = domain.VerdictSend
		eval.Reason = "eligible"
		return eval, nil
	}
	if u.decider == nil {
		return nil, ErrNoDelegate
	}

	dc := u.buildDecisionContext(ctx, broker, toEmail, newLinks, usedLinks, summary, eval)
	decision, err := u.decide(ctx, dc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.LogError("outreach_delegate", err, map[string]interface{}{
			"broker_id": broker.ID,
		})
		return u.suppress(eval, domain.ReasonDelegateError, domain.SuppressionSourcePipeline, days, &newCount)
	}

	if !decision.IsSend() {
		reason := strings.TrimSpace(decision.Reason)
		if reason == "" {
			reason = "skipped by delegate without a reason"
		}
		return u.suppress(eval, reason, domain.SuppressionSourceDelegate, days, &newCount)
	}
	if decision.Email == nil || strings.TrimSpace(decision.Email.Subject) == "" || strings.TrimSpace(decision.Email.Body) == "" {
		u.log.WithField("broker_id", broker.ID).Warn("Delegate chose send without subject or body")
		return u.suppress(eval, domain.ReasonDelegateError, domain.SuppressionSourcePipeline, days, &newCount)
	}

	draft := &domain.SuggestedEmail{
		BrokerID:        broker.ID,
		ToEmail:         toEmail,
		NewListingIDs:   domain.StringArray(newIDs),
		Subject:         strings.TrimSpace(decision.Email.Subject),
		BodyContent:     strings.TrimSpace(decision.Email.Body),
		IsFirstContact:  lastContact == nil,
		ReplyToThreadID: openThreadID(summary),
		Tone:            eval.Tone,
		Template:        eval.Template,
		DecisionReason:  decision.Reason,
		Status:          domain.StatusDraft,
	}
	if err := u.suggestedRepo.Create(draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	eval.Verdict = domain.VerdictSend
	eval.Reason = decision.Reason
	eval.Draft = draft

	u.log.WithFields(logrus.Fields{
		"broker_id": broker.ID,
		"tone":      eval.Tone,
		"template":  eval.Template,
		"listings":  newCount,
	}).Info("Outreach draft created")
	u.notifyDraft(ctx, broker, draft)

	return eval, nil
}

// openThreadID continues the latest thread only while it is still open.
func openThreadID(summary *emaildomain.ConversationSummary) *string {
	if summary.LatestThread == nil || !summary.LatestThread.IsOpen() {
		return nil
	}
	id := summary.LatestThread.GmailThreadID
	return &id
}

func (u *outreachUsecase) suppress(eval *domain.Evaluation, reason string, source domain.SuppressionSource, days, listingCount *int) (*domain.Evaluation, error) {
	eval.Verdict = domain.VerdictSkip
	eval.Reason = reason
	if days != nil {
		eval.DaysSinceLastContact = days
	}

	u.log.WithFields(logrus.Fields{
		"broker_id": eval.BrokerID,
		"reason":    reason,
		"source":    source,
	}).Debug("Broker suppressed")

	if eval.DryRun {
		return eval, nil
	}

	entry := &domain.SuppressionLog{
		BrokerID:             eval.BrokerID,
		Reason:               reason,
		Source:               source,
		DaysSinceLastContact: days,
		NewListingCount:      listingCount,
	}
	if err := u.suppressionRepo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to write suppression: %w", err)
	}
	eval.Suppression = entry
	return eval, nil
}

// decide calls the delegate, paced, with one retry after a backoff.
func (u *outreachUsecase) decide(ctx context.Context, dc *ai.DecisionContext) (*ai.Decision, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if attempt > 1 {
			if err := u.sleep(ctx, u.rules.Outreach.GetDelegateRetryBackoff()); err != nil {
				return nil, err
			}
		}
		if err := u.waitForDelegate(ctx); err != nil {
			return nil, err
		}

		decision, err := u.decider.Decide(ctx, dc)
		if err == nil {
			return decision, nil
		}
		lastErr = err
		u.log.WithError(err).WithField("attempt", attempt).Warn("Delegate call failed")
	}
	return nil, lastErr
}

// waitForDelegate keeps at least the configured delay between two delegate calls.
func (u *outreachUsecase) waitForDelegate(ctx context.Context) error {
	u.pacerMu.Lock()
	defer u.pacerMu.Unlock()

	if !u.lastDelegateCall.IsZero() {
		wait := u.rules.Outreach.GetDelegateDelay() - u.now().Sub(u.lastDelegateCall)
		if err := u.sleep(ctx, wait); err != nil {
			return err
		}
	}
	u.lastDelegateCall = u.now()
	return nil
}

func (u *outreachUsecase) buildDecisionContext(
	ctx context.Context,
	broker *brokerdomain.Broker,
	toEmail string,
	newLinks, usedLinks []*listingdomain.BrokerListing,
	summary *emaildomain.ConversationSummary,
	eval *domain.Evaluation,
) *ai.DecisionContext {
	rules := &u.rules.Outreach
	profile := &u.rules.Profile

	dc := &ai.DecisionContext{
		BrokerName:    broker.Name,
		BrokerEmail:   toEmail,
		BrokerageName: broker.BrokerageName,
		LicenseNumber: broker.LicenseNumber,
		NewListings:   summarizeListings(newLinks, rules.MaxListingIDs),
		UsedListings:  summarizeListings(usedLinks, rules.MaxListingIDs),
		Conversation: ai.ConversationStats{
			ThreadCount:     summary.ThreadCount,
			SentCount:       summary.SentCount,
			ReceivedCount:   summary.ReceivedCount,
			LastInteraction: summary.LastInteraction,
			HasReplied:      summary.HasReplied,
		},
		Tone:     string(eval.Tone),
		Template: string(eval.Template),
		Sender: ai.SenderProfile{
			Name:      profile.SenderName,
			Company:   profile.Company,
			Phone:     profile.Phone,
			Pitch:     profile.Pitch,
			Signature: profile.Signature(),
		},
	}

	// RecentMessages is newest first; the delegate reads oldest first
	for i := len(summary.RecentMessages) - 1; i >= 0; i-- {
		m := summary.RecentMessages[i]
		dc.Messages = append(dc.Messages, ai.MessageSummary{
			Direction: string(m.Direction),
			Subject:   m.Subject,
			Body:      truncate(m.BodyText, rules.BodyPreviewChars),
			SentAt:    m.SentAt,
		})
	}

	dc.StyleExamples = u.styleExamples(ctx, eval.Template, dc.NewListings)
	return dc
}

// styleExamples returns past sent emails of the same template, closest to
// the new listings first.
func (u *outreachUsecase) styleExamples(ctx context.Context, template domain.Template, listings []ai.ListingSummary) []string {
	limit := u.rules.Outreach.StyleExampleLimit
	if u.style == nil || limit <= 0 {
		return nil
	}

	var query []string
	for _, l := range listings {
		query = append(query, ai.FormatListingLine(l))
	}

	var examples []string
	for _, id := range u.style.SimilarEmailIDs(ctx, string(template), strings.Join(query, "\n"), limit) {
		sent, err := u.suggestedRepo.FindByID(id)
		if err != nil || sent == nil || sent.Status != domain.StatusSent {
			continue
		}
		examples = append(examples, fmt.Sprintf("Subject: %s\n\n%s", sent.Subject, sent.BodyContent))
	}
	return examples
}

func summarizeListings(links []*listingdomain.BrokerListing, limit int) []ai.ListingSummary {
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	summaries := make([]ai.ListingSummary, 0, len(links))
	for _, link := range links {
		s := ai.ListingSummary{ID: link.ListingID, Role: string(link.Role)}
		if l := link.Listing; l != nil {
			s.Address = l.Address
			s.City = l.City
			s.Price = l.Price
			s.Status = string(l.Status)
			date := l.ListingDate
			if l.Status == listingdomain.ListingStatusSold && l.SaleDate != nil {
				date = l.SaleDate
			}
			if date != nil {
				s.Date = date.Format("2006-01-02")
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

func truncate(s string, maxChars int) string {
	s = strings.TrimSpace(s)
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "..."
}

func (u *outreachUsecase) notifyDraft(ctx context.Context, broker *brokerdomain.Broker, draft *domain.SuggestedEmail) {
	if u.notifier == nil {
		return
	}
	name := broker.Name
	if name == "" {
		name = draft.ToEmail
	}
	u.notifier.NotifyOperators(ctx, fcm.NotificationData{
		Title: "New outreach draft",
		Body:  fmt.Sprintf("%s: %s", name, draft.Subject),
		Data: map[string]string{
			"type":               "draft_created",
			"suggested_email_id": draft.ID,
			"broker_id":          broker.ID,
			"click_action":       "/queue",
		},
	})
}
