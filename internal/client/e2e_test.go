package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"userdesk/internal/adapter/cache"
	"userdesk/internal/adapter/db/gormrepo"
	"userdesk/internal/adapter/gin/handler"
	"userdesk/internal/adapter/gin/router"
	"userdesk/internal/adapter/repository/cached"
	"userdesk/internal/client"
	domain "userdesk/internal/domain/user"
	"userdesk/internal/usecase/user"
)

// BackendSuite drives the client against the real backend stack on sqlite,
// optionally behind the Redis cache.
type BackendSuite struct {
	suite.Suite
	withCache bool

	server *httptest.Server
	client *client.Client
	ctx    context.Context
}

func (s *BackendSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(s.T())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(gormrepo.Migrate(db))
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.T().Cleanup(func() { _ = sqlDB.Close() })

	var repo user.Repository = gormrepo.NewUserRepo(db, log)
	if s.withCache {
		mr := miniredis.RunT(s.T())
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		s.T().Cleanup(func() { _ = rdb.Close() })
		repo = cached.NewUserRepository(repo, cache.NewRedisUserCache(rdb, time.Minute, log), log)
	}

	uc := user.New(repo, log)
	s.server = httptest.NewServer(router.SetupRouter(handler.NewUserHandler(uc, log), nil, nil, log))
	s.T().Cleanup(s.server.Close)

	c, err := client.New(client.Config{BaseURL: s.server.URL}, log)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })
	s.client = c
	s.ctx = context.Background()
}

func (s *BackendSuite) TestEmptyBackendListsNothing() {
	users := s.client.ListUsers(s.ctx)
	s.NotNil(users)
	s.Empty(users)
}

func (s *BackendSuite) TestCreateThenList() {
	s.True(s.client.CreateUser(s.ctx, &domain.User{LastName: "Dupont", FirstName: "Jean", Age: 30}))

	users := s.client.ListUsers(s.ctx)
	s.Require().Len(users, 1)
	s.Positive(users[0].ID)
	s.Equal("Dupont", users[0].LastName)
	s.Equal("Jean", users[0].FirstName)
	s.Equal(30, users[0].Age)
}

func (s *BackendSuite) TestRoundTrip() {
	s.Require().True(s.client.CreateUser(s.ctx, &domain.User{LastName: "Martin", FirstName: "Claire", Age: 42}))
	id := s.client.ListUsers(s.ctx)[0].ID

	got := s.client.GetUser(s.ctx, id)
	s.Require().NotNil(got)
	s.Equal(domain.User{ID: id, LastName: "Martin", FirstName: "Claire", Age: 42}, *got)

	s.True(s.client.UpdateUser(s.ctx, &domain.User{ID: id, LastName: "Martin", FirstName: "Claire", Age: 43}))

	got = s.client.GetUser(s.ctx, id)
	s.Require().NotNil(got)
	s.Equal(43, got.Age)
	s.Equal(43, s.client.ListUsers(s.ctx)[0].Age)

	s.True(s.client.DeleteUser(s.ctx, id))
	s.Nil(s.client.GetUser(s.ctx, id))
	s.Empty(s.client.ListUsers(s.ctx))
}

func (s *BackendSuite) TestUnknownIDs() {
	s.False(s.client.UpdateUser(s.ctx, &domain.User{ID: 99999, LastName: "X", FirstName: "Y", Age: 20}))
	s.False(s.client.DeleteUser(s.ctx, 99999))
	s.Nil(s.client.GetUser(s.ctx, 99999))
}

func (s *BackendSuite) TestBackendRejectsWhatTheClientAccepts() {
	// The client only requires a positive age; the backend enforces 18..100.
	s.False(s.client.CreateUser(s.ctx, &domain.User{LastName: "Petit", FirstName: "Lou", Age: 5}))
	s.False(s.client.CreateUser(s.ctx, &domain.User{LastName: "<b>", FirstName: "Lou", Age: 30}))
	s.Empty(s.client.ListUsers(s.ctx))
}

func (s *BackendSuite) TestListIsOrderedByID() {
	for _, name := range []string{"Durand", "Bernard", "Petit"} {
		s.Require().True(s.client.CreateUser(s.ctx, &domain.User{LastName: name, FirstName: "A", Age: 20}))
	}

	users := s.client.ListUsers(s.ctx)
	s.Require().Len(users, 3)
	s.Less(users[0].ID, users[1].ID)
	s.Less(users[1].ID, users[2].ID)
	s.Equal("Petit", users[2].LastName)
}

func TestBackend(t *testing.T) {
	suite.Run(t, &BackendSuite{})
}

func TestBackend_WithCache(t *testing.T) {
	suite.Run(t, &BackendSuite{withCache: true})
}
