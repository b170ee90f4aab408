package main

import (
	"log"
	"os"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/journal"
	"github.com/trezcool/ejournal/core/mark"
	emailsvc "github.com/trezcool/ejournal/services/email"
	logsvc "github.com/trezcool/ejournal/services/logger"
	inmemdb "github.com/trezcool/ejournal/storage/database/inmem"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up the journal
	vocab, err := mark.LoadVocabulary(conf.Journal)
	errAndDie(logger, "loading vocabulary", err)
	seed, err := journal.LoadSeedFromConfig(conf)
	errAndDie(logger, "loading seed", err)
	db := inmemdb.Open()
	jnl, err := journal.New(seed, vocab, inmemdb.NewStudentRepository(db), inmemdb.NewLessonRepository(db), logger)
	errAndDie(logger, "seeding journal", err)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stderr, "MAIL : ", 0), logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		conf:    conf,
		seed:    seed,
		jnl:     jnl,
		mailSvc: mailSvc,
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			log.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, msg string, err error) {
	if err != nil {
		logger.Fatal(msg, err)
	}
}
