package service

import (
	"golang-portfolio/config"
	"golang-portfolio/pkg/cache"
	"golang-portfolio/pkg/logger"
)

type Service struct {
	PositionService PositionService
	BacktestService BacktestService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	inmemoryCache cache.Cache,
) *Service {
	return &Service{
		PositionService: NewPositionService(log),
		BacktestService: NewBacktestService(cfg, log, inmemoryCache),
	}
}
