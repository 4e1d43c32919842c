package main

//go:generate swag init -g cmd/syncd/main.go -o docs

// @title           Bite Sync Daemon API
// @version         0.1.0
// @description     Local status, activity and manual trigger for the cloud sync engine.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
