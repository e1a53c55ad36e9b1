package main

import (
	_ "github.com/divyadhiman22/MyNotes/docs" // Important for Swagger
)

// @title           MyNotes API
// @version         1.0
// @description     Notes service with session-guarded pages and a per-session note cache.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	Execute()
}
