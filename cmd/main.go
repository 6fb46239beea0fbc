package main

import (
	"github.com/mercatto/stock-reservation/internal/app"
	"github.com/mercatto/stock-reservation/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
