//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"humancanvas/internal/dbmysql"
	"humancanvas/internal/logging"
	"humancanvas/internal/notify"
)

func InitializeApplication() (*Application, error) {
	wire.Build(
		ProvideConfig,
		logging.New,
		dbmysql.NewMySQL,
		dbmysql.NewNotificationRepository,
		ProvideFeed,
		ProvideClock,
		ProvideSessionManager,
		notify.NewService,
		notify.NewHTTPHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
