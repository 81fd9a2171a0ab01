package main

import (
	"os"
	"runtime"

	"github.com/funes-project/funes"
	fcli "github.com/funes-project/funes/cli"
	"github.com/funes-project/funes/matcher"

	"gopkg.in/src-d/go-cli.v0"
	log "gopkg.in/src-d/go-log.v1"
	queue "gopkg.in/src-d/go-queue.v1"
	_ "gopkg.in/src-d/go-queue.v1/memory"
)

func init() {
	app.AddCommand(&downloadCmd{})
}

type downloadCmd struct {
	cli.Command `name:"download" short-description:"crawl repositories from a seed list" long-description:"Clones every repository of the seed list, walks all branches and stores every revision of every accepted file in the deduplicated content store."`
	fcli.MetricsOpts

	Output   string `long:"output" env:"FUNES_OUTPUT" default:"funes-corpus" description:"output directory of the corpus"`
	Queue    string `long:"queue" env:"FUNES_QUEUE" default:"funes" description:"queue name"`
	Workers  int    `long:"workers" env:"FUNES_WORKERS" default:"0" description:"number of crawling workers, 0 means all cores"`
	Language string `long:"language" env:"FUNES_LANGUAGE" default:"javascript" description:"language policy used to select files"`

	downloadArgs `positional-args:"true" required:"yes"`
}

type downloadArgs struct {
	Seeds string `positional-arg-name:"seeds" description:"file with one repository per line: url[,id]"`
}

func (c *downloadCmd) Execute(args []string) error {
	c.MaybeStartMetrics()

	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}

	patterns, err := matcher.ForLanguage(c.Language)
	if err != nil {
		return err
	}

	session, err := funes.NewSession(c.Output, patterns)
	if err != nil {
		return err
	}

	broker, err := queue.NewBroker("memory://")
	if err != nil {
		return err
	}
	defer broker.Close()

	q, err := broker.Queue(c.Queue)
	if err != nil {
		return err
	}

	f, err := os.Open(c.Seeds)
	if err != nil {
		return err
	}

	iter := funes.NewSeedJobIter(c.Seeds, f, session.Projects)
	defer iter.Close()

	logger := log.New(log.Fields{"command": "download"})

	pool := funes.NewDownloaderWorkerPool(logger, session)
	pool.SetWorkerCount(c.Workers)

	e := funes.NewExecutor(logger, q, pool, iter)
	if err := e.Execute(); err != nil {
		return err
	}

	return session.Close()
}
