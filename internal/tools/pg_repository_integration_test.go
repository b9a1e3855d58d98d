package tools_test

import (
	"context"
	"testing"

	"ezcode-server/internal/models"
	"ezcode-server/internal/testutil"
	"ezcode-server/internal/tools"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ToolRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo tools.Repository
}

func (s *ToolRepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	pg := testutil.StartPostgres(s.T())
	s.repo = tools.NewPgRepository(pg.Pool, zap.NewNop())
}

func (s *ToolRepositorySuite) TestListAll() {
	list, err := s.repo.List(s.ctx, tools.Filter{})
	s.Require().NoError(err)
	s.Len(list, 6)
}

func (s *ToolRepositorySuite) TestListByCategoryAndFlags() {
	list, err := s.repo.List(s.ctx, tools.Filter{Category: "ai-assistant"})
	s.Require().NoError(err)
	s.Len(list, 2)
	for _, tool := range list {
		s.Equal("AI Assistant", tool.CategoryName)
	}

	featured, err := s.repo.List(s.ctx, tools.Filter{Featured: true})
	s.Require().NoError(err)
	s.Len(featured, 2)

	trendingNew, err := s.repo.List(s.ctx, tools.Filter{Trending: true, New: true})
	s.Require().NoError(err)
	s.Len(trendingNew, 2)
}

func (s *ToolRepositorySuite) TestSearchAndPaging() {
	list, err := s.repo.List(s.ctx, tools.Filter{Search: "pair programmer"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("github-copilot", list[0].Slug)

	page, err := s.repo.List(s.ctx, tools.Filter{Limit: 4, Offset: 4})
	s.Require().NoError(err)
	s.Len(page, 2)
}

func (s *ToolRepositorySuite) TestGetBySlugAndID() {
	tool, err := s.repo.GetBySlug(s.ctx, "cursor-ide")
	s.Require().NoError(err)
	s.Equal("Cursor IDE", tool.Title)
	s.InDelta(4.7, tool.Rating, 1e-9)
	s.Equal("Code Editor", tool.Entry().Category)

	byID, err := tools.Resolve(s.ctx, s.repo, tool.ID)
	s.Require().NoError(err)
	s.Equal(tool.Slug, byID.Slug)

	_, err = s.repo.GetBySlug(s.ctx, "missing")
	s.ErrorIs(err, models.ErrNotFound)
	_, err = s.repo.GetByID(s.ctx, "not-a-uuid")
	s.ErrorIs(err, models.ErrNotFound)
	_, err = s.repo.GetByID(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *ToolRepositorySuite) TestListCategories() {
	cats, err := s.repo.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cats, 5)
	s.Equal("ai-assistant", cats[0].Slug)
	s.Equal("documentation", cats[4].Slug)
}

func TestToolRepositorySuite(t *testing.T) {
	testutil.RequireDocker(t)
	suite.Run(t, new(ToolRepositorySuite))
}
