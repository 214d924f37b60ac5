package config

import (
	"context"
	"errors"

	"github.com/erp/connector/internal/domain/integration"
)

// SettingLookup reads one connector setting. It returns
// integration.ErrConfigValueNotFound when the key is not set.
type SettingLookup interface {
	Lookup(ctx context.Context, key string) (any, error)
}

// StaticConfigService serves connector settings from a fixed map, typically
// the import section of the configuration file
type StaticConfigService struct {
	settings map[string]any
}

// NewStaticConfigService creates a StaticConfigService. The map is copied.
func NewStaticConfigService(settings map[string]any) *StaticConfigService {
	copied := make(map[string]any, len(settings))
	for key, value := range settings {
		copied[key] = value
	}
	return &StaticConfigService{settings: copied}
}

// Lookup returns the setting stored under key
func (s *StaticConfigService) Lookup(_ context.Context, key string) (any, error) {
	value, ok := s.settings[key]
	if !ok {
		return nil, integration.ErrConfigValueNotFound
	}
	return value, nil
}

// Get returns the setting stored under key or the default
func (s *StaticConfigService) Get(ctx context.Context, key string, defaultValue any) (any, error) {
	return getOrDefault(ctx, s, key, defaultValue)
}

// LayeredConfigService resolves a setting from the first layer that has it
type LayeredConfigService struct {
	layers []SettingLookup
}

// NewLayeredConfigService creates a LayeredConfigService; earlier layers win
func NewLayeredConfigService(layers ...SettingLookup) *LayeredConfigService {
	return &LayeredConfigService{layers: layers}
}

// Lookup returns the setting from the first layer that has it
func (s *LayeredConfigService) Lookup(ctx context.Context, key string) (any, error) {
	for _, layer := range s.layers {
		value, err := layer.Lookup(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, integration.ErrConfigValueNotFound) {
			return nil, err
		}
	}
	return nil, integration.ErrConfigValueNotFound
}

// Get returns the setting from the first layer that has it or the default
func (s *LayeredConfigService) Get(ctx context.Context, key string, defaultValue any) (any, error) {
	return getOrDefault(ctx, s, key, defaultValue)
}

func getOrDefault(ctx context.Context, lookup SettingLookup, key string, defaultValue any) (any, error) {
	value, err := lookup.Lookup(ctx, key)
	if errors.Is(err, integration.ErrConfigValueNotFound) {
		return defaultValue, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Ensure the services implement ConfigService
var (
	_ integration.ConfigService = (*StaticConfigService)(nil)
	_ integration.ConfigService = (*LayeredConfigService)(nil)
)
