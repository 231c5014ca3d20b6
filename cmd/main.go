package main

import (
	"github.com/corray333/backend-labs/fooddelivery/internal/app"
	"github.com/corray333/backend-labs/fooddelivery/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
