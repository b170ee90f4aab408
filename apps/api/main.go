package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/ejournal/apps/api/echo"
	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/journal"
	"github.com/trezcool/ejournal/core/mark"
	emailsvc "github.com/trezcool/ejournal/services/email"
	logsvc "github.com/trezcool/ejournal/services/logger"
	inmemdb "github.com/trezcool/ejournal/storage/database/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up the journal
	vocab, err := mark.LoadVocabulary(conf.Journal)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading vocabulary: %v", err), err)
	}
	seed, err := journal.LoadSeedFromConfig(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading seed: %v", err), err)
	}
	db := inmemdb.Open()
	jnl, err := journal.New(seed, vocab, inmemdb.NewStudentRepository(db), inmemdb.NewLessonRepository(db), logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding journal: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	echoapi.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewInt("students").Set(int64(len(seed.Students)))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.Deps{
			Conf:       conf,
			Logger:     logger,
			Journal:    jnl,
			MailSvc:    mailSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}

		// let the exports being mailed go out
		mailSvc.Wait()
	}
}
