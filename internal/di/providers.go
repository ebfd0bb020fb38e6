package di

import (
	"os"

	clog "github.com/charmbracelet/log"
	"gorm.io/gorm"

	"humancanvas/internal/common"
	"humancanvas/internal/config"
	"humancanvas/internal/notify"
	"humancanvas/internal/session"
	"humancanvas/pkg/sse"
)

// Application bundles everything the notify service entrypoint needs.
type Application struct {
	Config   *config.Config
	Logger   *clog.Logger
	DB       *gorm.DB
	Store    common.NotificationStore
	Feed     common.ChangeFeed
	Sessions *session.Manager
	Service  *notify.Service
	Handler  *notify.HTTPHandler
}

func ProvideConfig() (*config.Config, error) {
	return config.Load(os.Getenv("CONFIG_PATH"))
}

func ProvideFeed() common.ChangeFeed {
	return sse.NewHub()
}

func ProvideClock() common.Clock {
	return common.SystemClock{}
}

func ProvideSessionManager(cfg *config.Config) *session.Manager {
	return session.NewManager(cfg.Session.Secret, cfg.SessionTTL())
}
