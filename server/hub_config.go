package server

import (
	"time"

	"github.com/moxitooo/zzzmeika/internal/schedule"
)

const (
	defaultRespawnDelay  = 2 * time.Second
	defaultMaxChatLength = 200
	defaultMaxNameLength = 32
	defaultStoreTimeout  = 5 * time.Second
)

// HubConfig holds the hub tunables.
type HubConfig struct {
	// Seed drives room layouts and generated identities. Empty picks a
	// time-based seed.
	Seed          string
	RespawnDelay  time.Duration
	MaxChatLength int
	MaxNameLength int
	StoreTimeout  time.Duration

	Now       func() time.Time
	AfterFunc schedule.AfterFunc
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		RespawnDelay:  defaultRespawnDelay,
		MaxChatLength: defaultMaxChatLength,
		MaxNameLength: defaultMaxNameLength,
		StoreTimeout:  defaultStoreTimeout,
	}
}

func (c HubConfig) normalized() HubConfig {
	if c.RespawnDelay <= 0 {
		c.RespawnDelay = defaultRespawnDelay
	}
	if c.MaxChatLength <= 0 {
		c.MaxChatLength = defaultMaxChatLength
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = defaultMaxNameLength
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaultStoreTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.AfterFunc == nil {
		c.AfterFunc = schedule.RealAfterFunc
	}
	return c
}
