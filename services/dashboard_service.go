package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/raceday/models"
	"github.com/Dosada05/raceday/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetAdminDashboard(ctx context.Context, adminClubID int) (*models.AdminDashboard, error)
}

type dashboardService struct {
	clubRepo   repositories.ClubRepository
	playerRepo repositories.PlayerRepository
	teamRepo   repositories.TeamRepository
}

func NewDashboardService(
	clubRepo repositories.ClubRepository,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
) DashboardService {
	return &dashboardService{
		clubRepo:   clubRepo,
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
	}
}

func (s *dashboardService) GetAdminDashboard(ctx context.Context, adminClubID int) (*models.AdminDashboard, error) {
	admin, err := s.clubRepo.GetByID(ctx, adminClubID)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to get admin club: %w", err)
	}
	if admin.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	var stats models.DashboardStats
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.clubRepo.Count(gCtx)
		stats.TotalClubs = n
		return err
	})
	g.Go(func() error {
		n, err := s.playerRepo.Count(gCtx)
		stats.TotalPlayers = n
		return err
	})
	g.Go(func() error {
		n, err := s.teamRepo.Count(gCtx)
		stats.TotalTeams = n
		return err
	})
	g.Go(func() error {
		counts, err := s.teamRepo.CountByPaymentStatus(gCtx)
		if err != nil {
			return err
		}
		stats.PaidTeams = counts[models.PaymentPaid]
		stats.UnpaidTeams = counts[models.PaymentUnpaid]
		stats.ProcessingTeams = counts[models.PaymentProcessing]
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return &models.AdminDashboard{Admin: admin, Stats: stats}, nil
}
