package settings

import (
	"context"
	"fmt"
	"strings"

	"tg-miner-bot/internal/domain"
)

// Service отвечает за настройки автоматизации пользователя.
type Service struct {
	repo domain.SettingsRepo
}

// NewService создаёт сервис.
func NewService(repo domain.SettingsRepo) *Service {
	return &Service{repo: repo}
}

// Get возвращает настройки, создавая запись по умолчанию при первом
// обращении.
func (s *Service) Get(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	settings, err := s.repo.Get(ctx, platform, platformID)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("получение настроек: %w", err)
	}
	return settings, nil
}

// Update сохраняет настройки. Получатель перевода проверяется здесь же:
// некорректный адрес не должен попадать в хранилище.
func (s *Service) Update(ctx context.Context, settings domain.UserSettings) error {
	settings.TransferRecipient = strings.TrimSpace(settings.TransferRecipient)
	if settings.TransferRecipient != "" && !domain.ValidRecipient(settings.TransferRecipient) {
		return domain.ErrInvalidRecipient
	}
	if settings.TransferEnabled && settings.TransferRecipient == "" {
		return domain.ErrInvalidRecipient
	}
	if err := s.repo.Update(ctx, settings); err != nil {
		return fmt.Errorf("обновление настроек: %w", err)
	}
	return nil
}

// Reset сбрасывает настройки к значениям по умолчанию.
func (s *Service) Reset(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	settings, err := s.repo.Reset(ctx, platform, platformID)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("сброс настроек: %w", err)
	}
	return settings, nil
}
