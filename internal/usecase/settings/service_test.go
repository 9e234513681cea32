package settings

import (
	"context"
	"errors"
	"testing"

	"tg-miner-bot/internal/domain"
)

type fakeRepo struct {
	stored  map[int64]domain.UserSettings
	updated []domain.UserSettings
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stored: make(map[int64]domain.UserSettings)}
}

func (f *fakeRepo) Get(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	s, ok := f.stored[platformID]
	if !ok {
		s = domain.UserSettings{Platform: platform, PlatformID: platformID}
		f.stored[platformID] = s
	}
	return s, nil
}

func (f *fakeRepo) Update(ctx context.Context, s domain.UserSettings) error {
	f.stored[s.PlatformID] = s
	f.updated = append(f.updated, s)
	return nil
}

func (f *fakeRepo) Reset(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	delete(f.stored, platformID)
	return f.Get(ctx, platform, platformID)
}

func TestGetCreatesDefaults(t *testing.T) {
	svc := NewService(newFakeRepo())

	s, err := svc.Get(context.Background(), domain.PlatformTelegram, 5)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if s.ClaimSolThreshold != 0 || s.SwapEnabled || s.TransferEnabled {
		t.Fatalf("первое обращение должно давать настройки по умолчанию: %+v", s)
	}
}

func TestUpdateRejectsInvalidRecipient(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	err := svc.Update(context.Background(), domain.UserSettings{
		Platform:          domain.PlatformTelegram,
		PlatformID:        5,
		TransferEnabled:   true,
		TransferRecipient: "совсем не адрес",
	})
	if !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("ожидали ErrInvalidRecipient, получили %v", err)
	}
	if len(repo.updated) != 0 {
		t.Fatal("некорректный адрес не должен сохраняться")
	}
}

func TestUpdateRequiresRecipientWhenTransferEnabled(t *testing.T) {
	svc := NewService(newFakeRepo())

	err := svc.Update(context.Background(), domain.UserSettings{
		Platform:        domain.PlatformTelegram,
		PlatformID:      5,
		TransferEnabled: true,
	})
	if !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("включённый перевод без адреса должен отклоняться, получили %v", err)
	}
}

func TestUpdateAcceptsValidRecipient(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	err := svc.Update(context.Background(), domain.UserSettings{
		Platform:          domain.PlatformTelegram,
		PlatformID:        5,
		TransferEnabled:   true,
		TransferThreshold: 100,
		TransferRecipient: " 11111111111111111111111111111111 ",
	})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if repo.stored[5].TransferRecipient != "11111111111111111111111111111111" {
		t.Fatalf("адрес должен сохраняться без пробелов, получили %q", repo.stored[5].TransferRecipient)
	}
}

func TestResetRecreatesDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_ = svc.Update(context.Background(), domain.UserSettings{
		Platform:    domain.PlatformTelegram,
		PlatformID:  5,
		SwapEnabled: true,
	})
	s, err := svc.Reset(context.Background(), domain.PlatformTelegram, 5)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if s.SwapEnabled {
		t.Fatalf("после сброса настройки должны быть по умолчанию: %+v", s)
	}
}
