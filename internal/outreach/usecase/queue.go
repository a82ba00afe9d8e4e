package usecase

import (
	"strings"

	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
)

func (u *outreachUsecase) ListSuggestedEmails(status, brokerID string, limit, offset int) ([]*domain.SuggestedEmail, int64, error) {
	if status == "" {
		return u.suggestedRepo.List(nil, brokerID, limit, offset)
	}
	s := domain.SuggestedEmailStatus(status)
	return u.suggestedRepo.List(&s, brokerID, limit, offset)
}

func (u *outreachUsecase) GetSuggestedEmail(id string) (*domain.SuggestedEmail, error) {
	email, err := u.suggestedRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, domain.ErrSuggestedEmailNotFound
	}
	return email, nil
}

func (u *outreachUsecase) EditSuggestedEmail(id string, req dto.EditRequest) (*domain.SuggestedEmail, error) {
	email, err := u.GetSuggestedEmail(id)
	if err != nil {
		return nil, err
	}

	subject := email.Subject
	if req.Subject != nil {
		subject = strings.TrimSpace(*req.Subject)
	}
	body := email.BodyContent
	if req.Body != nil {
		body = *req.Body
	}
	if subject == "" || strings.TrimSpace(body) == "" {
		return nil, domain.ErrEmptyContent
	}

	editable := []domain.SuggestedEmailStatus{domain.StatusDraft, domain.StatusApproved}
	if err := u.suggestedRepo.UpdateContent(id, subject, body, editable); err != nil {
		return nil, err
	}
	return u.GetSuggestedEmail(id)
}

func (u *outreachUsecase) ApproveSuggestedEmail(id string) (*domain.SuggestedEmail, error) {
	email, err := u.GetSuggestedEmail(id)
	if err != nil {
		return nil, err
	}

	err = u.suggestedRepo.Transition(id, email.Status, domain.StatusApproved, map[string]interface{}{
		"approved_at": u.now().UTC(),
		"send_status": domain.SendStatusNone,
		"last_error":  "",
	})
	if err != nil {
		return nil, err
	}

	u.log.WithField("suggested_email_id", id).Info("Suggested email approved")
	return u.GetSuggestedEmail(id)
}

func (u *outreachUsecase) SkipSuggestedEmail(id, reason string) (*domain.SuggestedEmail, error) {
	email, err := u.GetSuggestedEmail(id)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	err = u.suggestedRepo.Transition(id, email.Status, domain.StatusSkipped, map[string]interface{}{
		"skipped_at":  now,
		"skip_reason": strings.TrimSpace(reason),
	})
	if err != nil {
		return nil, err
	}

	u.log.WithField("suggested_email_id", id).Info("Suggested email skipped")
	return u.GetSuggestedEmail(id)
}

func (u *outreachUsecase) ListSuppressions(brokerID, reason string, limit, offset int) ([]*domain.SuppressionLog, int64, error) {
	return u.suppressionRepo.List(brokerID, reason, limit, offset)
}

func (u *outreachUsecase) ListSentLogs(brokerID, status string, limit, offset int) ([]*domain.SentEmailLog, int64, error) {
	if status == "" {
		return u.sentRepo.List(brokerID, nil, limit, offset)
	}
	s := domain.SendStatus(status)
	return u.sentRepo.List(brokerID, &s, limit, offset)
}
