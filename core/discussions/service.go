package discussions

import (
	"time"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
	"github.com/umarmughal824/micromasters-sub002/core/user"
)

type Service struct {
	db         core.DB
	repo       Repository
	userRepo   user.Repository
	searchRepo search.Repository
	client     Client
	lock       core.Lock
	logger     core.Logger
	conf       *core.Config

	nowFunc func() time.Time // mockable
}

func NewService(
	db core.DB,
	repo Repository,
	userRepo user.Repository,
	searchRepo search.Repository,
	client Client,
	lock core.Lock,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		userRepo:   userRepo,
		searchRepo: searchRepo,
		client:     client,
		lock:       lock,
		logger:     logger,
		conf:       conf,
		nowFunc:    time.Now,
	}
}

func (svc *Service) now() time.Time { return svc.nowFunc() }
