package main

import (
	"gopkg.in/src-d/go-cli.v0"
)

const (
	name        string = "funes"
	description string = "Crawls git repositories and stores every file revision, deduplicated."
)

var (
	version string
	build   string
)

var app = cli.New(name, version, build, description)

func main() {
	app.RunMain()
}
