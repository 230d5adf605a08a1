package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/noteshub/backend/apps/api/echo"
	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/core/note"
	"github.com/noteshub/backend/core/status"
	"github.com/noteshub/backend/core/user"
	"github.com/noteshub/backend/core/visit"
	emailsvc "github.com/noteshub/backend/services/email"
	"github.com/noteshub/backend/services/keepalive"
	logsvc "github.com/noteshub/backend/services/logger"
	"github.com/noteshub/backend/services/metrics"
	"github.com/noteshub/backend/storage/database"
	inmemdb "github.com/noteshub/backend/storage/database/inmem"
	"github.com/noteshub/backend/storage/database/sqlxrepos"
	"github.com/noteshub/backend/storage/kv"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB; fall back to the in-memory store when the database is out
	// of reach so the app keeps serving (clients see a degraded db-status).
	var usrRepo user.Repository
	var noteRepo note.Repository
	var fallback bool

	db, err := setUpDB(conf)
	if err != nil {
		dbLogger.Error(fmt.Sprintf("setting up database: %v; falling back to in-memory storage", err), err)
		memDB := inmemdb.NewDB()
		usrRepo = inmemdb.NewUserRepository(memDB)
		noteRepo = inmemdb.NewNoteRepository(memDB)
		fallback = true
	} else {
		usrRepo = sqlxrepos.NewUserRepository(db)
		noteRepo = sqlxrepos.NewNoteRepository(db)
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(usrRepo, mailSvc)
	noteSvc := note.NewService(noteRepo, mailSvc, usrSvc, logger)
	tracker := visit.NewTracker(newKVStore(conf), logger)
	checker := status.NewChecker(pinger(db), func() bool { return fallback })

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics    - Prometheus collectors.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.DefaultServeMux.Handle("/metrics", metrics.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Keep-Alive Pinger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ka := keepalive.NewPinger(conf.KeepAlive.BaseURL, conf.KeepAlive.Interval, logger)
	ka.Start(ctx)
	defer ka.Stop()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		conf.Server.Addr,
		echoapi.Deps{
			Logger:     logger,
			UserSvc:    usrSvc,
			NoteSvc:    noteSvc,
			Tracker:    tracker,
			Checker:    checker,
			Validate:   validate,
			Translator: translator,
		},
	)
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Ping(db); err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// pinger avoids handing the checker a non-nil interface holding a nil *sqlx.DB.
func pinger(db *sqlx.DB) status.Pinger {
	if db == nil {
		return nil
	}
	return db
}

func newKVStore(conf *core.Config) core.KVStore {
	if conf.Visits.Store == "redis" {
		return kv.NewRedisStore(conf.Redis)
	}
	return kv.NewFileStore(conf.Visits.FilePath)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
