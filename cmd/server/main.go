package main

import (
	"github.com/ticketwise/backend/internal/server"
	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
