package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

func newCommunityService() (*service.CommunityService, *MockCommunityRepo, *MockPledgeRepo) {
	published := now.Add(-time.Hour)
	community := &MockCommunityRepo{
		Updates: map[int]*model.Update{
			1: {ID: 1, CampaignID: 1, Title: "Live", Body: "x", PublishedAt: &published},
			2: {ID: 2, CampaignID: 1, Title: "Draft", Body: "y"},
		},
		Comments: []*model.Comment{
			{ID: 1, CampaignID: 1, AuthorEmail: "backer@example.com", Body: "love it"},
			{ID: 2, CampaignID: 1, AuthorEmail: "lurker@example.com", Body: "hmm"},
			{ID: 3, CampaignID: 1, AuthorEmail: " BACKER@Example.com", Body: "again"},
		},
	}
	pledges := newPledgeRepo()
	pledges.Backers["backer@example.com"] = struct{}{}
	return &service.CommunityService{
		CampaignRepo:  &MockCampaignRepo{Campaign: liveCampaign()},
		CommunityRepo: community,
		Backers:       pledges,
		Now:           func() time.Time { return now },
	}, community, pledges
}

func TestListCommentsMarksVerifiedBackers(t *testing.T) {
	svc, _, _ := newCommunityService()
	comments, err := svc.ListComments(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, comments, 3)

	verified := map[int]bool{}
	for _, c := range comments {
		verified[c.ID] = c.VerifiedBacker
	}
	assert.Equal(t, map[int]bool{1: true, 2: false, 3: true}, verified)
}

func TestPostComment(t *testing.T) {
	svc, community, _ := newCommunityService()
	upd := 1

	c, err := svc.PostComment(context.Background(), service.CommentInput{
		UpdateID: &upd, AuthorName: "Bo", AuthorEmail: "Backer@Example.com ", Body: " great ",
	})
	require.NoError(t, err)
	assert.Equal(t, "backer@example.com", c.AuthorEmail)
	assert.Equal(t, "great", c.Body)
	assert.True(t, c.VerifiedBacker)
	assert.Len(t, community.Comments, 4)
}

func TestPostCommentValidation(t *testing.T) {
	svc, community, _ := newCommunityService()
	draft, missing := 2, 99

	cases := map[string]service.CommentInput{
		"no name":        {AuthorEmail: "a@b.co", Body: "x"},
		"bad email":      {AuthorName: "A", AuthorEmail: "not-an-email", Body: "x"},
		"empty body":     {AuthorName: "A", AuthorEmail: "a@b.co", Body: "   "},
		"long body":      {AuthorName: "A", AuthorEmail: "a@b.co", Body: strings.Repeat("x", 2001)},
		"draft update":   {AuthorName: "A", AuthorEmail: "a@b.co", Body: "x", UpdateID: &draft},
		"missing update": {AuthorName: "A", AuthorEmail: "a@b.co", Body: "x", UpdateID: &missing},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PostComment(context.Background(), in)
			var verr *appErrors.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Len(t, community.Comments, 3)
}

func TestPublishUpdateIsIdempotent(t *testing.T) {
	svc, community, _ := newCommunityService()

	u, err := svc.Publish(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, u.PublishedAt)
	assert.Equal(t, now, *u.PublishedAt)

	_, err = svc.Publish(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, community.Saved)
}

func TestHideComment(t *testing.T) {
	svc, _, _ := newCommunityService()
	require.NoError(t, svc.HideComment(context.Background(), 2, true))

	visible, err := svc.ListComments(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	all, err := svc.ListAllComments(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.True(t, appErrors.IsNotFound(svc.HideComment(context.Background(), 42, true)))
}
