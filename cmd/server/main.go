package main

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/isk-daniar/bulletin-board/notification"
	"github.com/isk-daniar/bulletin-board/server"
	"github.com/isk-daniar/bulletin-board/server/middlewares"
	"github.com/isk-daniar/bulletin-board/utils"
	"github.com/isk-daniar/bulletin-board/utils/dotenv"
	Flag "github.com/isk-daniar/bulletin-board/utils/flag"
	. "github.com/isk-daniar/bulletin-board/utils/log"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func cleanup(cancel context.CancelFunc) {
	cancel()
	utils.CloseProfiler()
	utils.CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	Flag.Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	// Middlewares
	middlewares.Setup()

	utils.StartTracer()
	utils.StartProfiler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cleanup(cancel)

	db, err := utils.GetDBConnection()
	if err != nil {
		panic(err)
	}
	utils.DatabaseSetupAndMigration(db)

	// Notifications ride the in-process event bus; a slow or failing SMTP
	// relay never blocks request handling.
	bus := notification.NewEventBus()
	dispatcher := notification.NewDispatcher(bus, notification.NewSMTPMailer())
	go dispatcher.Run(ctx)

	readStatus, err := utils.GetRedisStatusStore()
	if err != nil {
		Log.Warn("redis unavailable, read-status cache disabled: ", err)
		readStatus = nil
	}

	srv := server.NewServer(db, notification.NewPublisher(bus), server.CryptoCodeProvider{}, readStatus)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(gintrace.Middleware(Flag.ServiceName))

	srv.InstallRoutes(router)

	Log.Info("api server starts up")
	router.Run(":8080")
}
