package service

import (
	"context"
	"sync/atomic"

	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/models"
	"github.com/burakmert236/arenaview/services/arena-service/internal/decoder"
	arenaerrors "github.com/burakmert236/arenaview/services/arena-service/internal/errors"
	"github.com/burakmert236/arenaview/services/arena-service/internal/metrics"
	"github.com/burakmert236/arenaview/services/arena-service/internal/repository"
	"github.com/burakmert236/arenaview/services/arena-service/internal/view"
)

type ArenaService interface {
	// Write Operations
	Ingest(ctx context.Context, payload []byte) (*models.Snapshot, error)

	// Read Operations
	GetView(ctx context.Context, arenaId models.ArenaID, page int, viewer models.UserName) (*view.ClientView, error)
	Stats() Stats
}

type Stats struct {
	Entries      int    `json:"entries"`
	Messages     uint64 `json:"messages"`
	DecodeErrors uint64 `json:"decodeErrors"`
}

type arenaService struct {
	arenaRepo *repository.ArenaRepository
	metrics   *metrics.Metrics
	logger    *logger.Logger

	messages     atomic.Uint64
	decodeErrors atomic.Uint64
}

func NewArenaService(
	arenaRepo *repository.ArenaRepository,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) ArenaService {
	return &arenaService{
		arenaRepo: arenaRepo,
		metrics:   metrics,
		logger:    logger.With("component", "ArenaService"),
	}
}

// Write Operations

func (s *arenaService) Ingest(ctx context.Context, payload []byte) (*models.Snapshot, error) {
	snapshot, err := decoder.Decode(payload)
	if err != nil {
		s.decodeErrors.Add(1)
		s.metrics.DecodeErrors.Inc()
		return nil, err
	}

	s.arenaRepo.Put(snapshot)
	s.messages.Add(1)
	s.metrics.IngestMessages.Inc()

	s.logger.Debug("Arena stored",
		"arena_id", snapshot.ID(),
		"players", snapshot.NbPlayers(),
	)
	return snapshot, nil
}

// Read Operations

func (s *arenaService) GetView(
	ctx context.Context,
	arenaId models.ArenaID,
	page int,
	viewer models.UserName,
) (*view.ClientView, error) {
	snapshot, ok := s.arenaRepo.Get(arenaId)
	if !ok {
		s.metrics.ViewRequests.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, arenaerrors.ArenaNotFound(string(arenaId))
	}

	var viewerId models.UserID
	if viewer != "" {
		viewerId = viewer.ToID()
	}

	s.metrics.ViewRequests.WithLabelValues(metrics.OutcomeFound).Inc()
	return view.Project(snapshot, page, viewerId), nil
}

func (s *arenaService) Stats() Stats {
	return Stats{
		Entries:      s.arenaRepo.Len(),
		Messages:     s.messages.Load(),
		DecodeErrors: s.decodeErrors.Load(),
	}
}
