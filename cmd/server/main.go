package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		infraModule,
		repositoryModule,
		serviceModule,
		httpModule,
		fx.Invoke(startHousekeeping),
		fx.Invoke(startServer),
	)

	app.Run()
}
