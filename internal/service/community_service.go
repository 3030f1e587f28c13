package service

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

const (
	maxCommentLength    = 2000
	maxAuthorNameLength = 120
)

// BackerLookup is the slice of the pledge repository needed to mark
// verified backers.
type BackerLookup interface {
	BackerEmails(ctx context.Context, campaignID int) (map[string]struct{}, error)
}

type CommunityService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	CommunityRepo repository.CommunityRepositoryInterface
	Backers       BackerLookup
	Logger        *zap.Logger
	Now           func() time.Time
}

type CommentInput struct {
	UpdateID    *int   `json:"update_id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Body        string `json:"body"`
}

func (s *CommunityService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ====================== Updates ======================

// ListUpdates returns drafts too; the public page goes through CampaignService.
func (s *CommunityService) ListUpdates(ctx context.Context) ([]*model.Update, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	return s.CommunityRepo.ListUpdates(ctx, c.ID, false)
}

func (s *CommunityService) CreateUpdate(ctx context.Context, u model.Update) (*model.Update, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	u.CampaignID = c.ID
	u.PublishedAt = nil
	if err := validateUpdate(&u); err != nil {
		return nil, err
	}
	if err := s.CommunityRepo.CreateUpdate(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *CommunityService) EditUpdate(ctx context.Context, id int, in model.Update) (*model.Update, error) {
	u, err := s.CommunityRepo.GetUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Title = in.Title
	u.Body = in.Body
	u.BackersOnly = in.BackersOnly
	if err := validateUpdate(u); err != nil {
		return nil, err
	}
	if err := s.CommunityRepo.SaveUpdate(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Publish is idempotent; the original publish time is kept.
func (s *CommunityService) Publish(ctx context.Context, id int) (*model.Update, error) {
	u, err := s.CommunityRepo.GetUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Published() {
		return u, nil
	}
	now := s.now()
	u.PublishedAt = &now
	if err := s.CommunityRepo.SaveUpdate(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *CommunityService) DeleteUpdate(ctx context.Context, id int) error {
	return s.CommunityRepo.DeleteUpdate(ctx, id)
}

func validateUpdate(u *model.Update) error {
	u.Title = strings.TrimSpace(u.Title)
	if u.Title == "" {
		return appErrors.NewValidation("title", "is required")
	}
	if strings.TrimSpace(u.Body) == "" {
		return appErrors.NewValidation("body", "is required")
	}
	return nil
}

// ====================== Comments ======================

// ListComments annotates each visible comment with whether its author has a
// paid pledge on the campaign.
func (s *CommunityService) ListComments(ctx context.Context, updateID *int) ([]*model.Comment, error) {
	return s.listComments(ctx, updateID, false)
}

// ListAllComments includes hidden comments for moderation.
func (s *CommunityService) ListAllComments(ctx context.Context) ([]*model.Comment, error) {
	return s.listComments(ctx, nil, true)
}

func (s *CommunityService) listComments(ctx context.Context, updateID *int, includeHidden bool) ([]*model.Comment, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := s.CommunityRepo.ListComments(ctx, c.ID, updateID, includeHidden)
	if err != nil {
		return nil, err
	}
	backers, err := s.Backers.BackerEmails(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	MarkVerifiedBackers(comments, backers)
	return comments, nil
}

// MarkVerifiedBackers sets VerifiedBacker from a set of normalized emails.
func MarkVerifiedBackers(comments []*model.Comment, backers map[string]struct{}) {
	for _, cm := range comments {
		_, ok := backers[repository.NormalizeEmail(cm.AuthorEmail)]
		cm.VerifiedBacker = ok
	}
}

func (s *CommunityService) PostComment(ctx context.Context, in CommentInput) (*model.Comment, error) {
	c, err := s.CampaignRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.AuthorName)
	email := repository.NormalizeEmail(in.AuthorEmail)
	body := strings.TrimSpace(in.Body)
	switch {
	case name == "":
		return nil, appErrors.NewValidation("author_name", "is required")
	case utf8.RuneCountInString(name) > maxAuthorNameLength:
		return nil, appErrors.NewValidation("author_name", "is too long")
	case !validEmail(email):
		return nil, appErrors.NewValidation("author_email", "must be a valid email address")
	case body == "":
		return nil, appErrors.NewValidation("body", "is required")
	case utf8.RuneCountInString(body) > maxCommentLength:
		return nil, appErrors.NewValidation("body", "must be at most 2000 characters")
	}

	if in.UpdateID != nil {
		u, err := s.CommunityRepo.GetUpdate(ctx, *in.UpdateID)
		if err != nil {
			if appErrors.IsNotFound(err) {
				return nil, appErrors.NewValidation("update_id", "does not reference an update")
			}
			return nil, err
		}
		if u.CampaignID != c.ID || !u.Published() {
			return nil, appErrors.NewValidation("update_id", "does not reference a published update")
		}
	}

	comment := &model.Comment{
		CampaignID:  c.ID,
		UpdateID:    in.UpdateID,
		AuthorName:  name,
		AuthorEmail: email,
		Body:        body,
	}
	if err := s.CommunityRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	backers, err := s.Backers.BackerEmails(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	MarkVerifiedBackers([]*model.Comment{comment}, backers)
	return comment, nil
}

func (s *CommunityService) HideComment(ctx context.Context, id int, hidden bool) error {
	return s.CommunityRepo.SetCommentHidden(ctx, id, hidden)
}

func (s *CommunityService) DeleteComment(ctx context.Context, id int) error {
	return s.CommunityRepo.DeleteComment(ctx, id)
}

func validEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@")+1:], ".")
}
