package main

import (
	"aibrief/cmd/handlers"
	"aibrief/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
