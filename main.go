package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/ricardocosta23/formularioguias/app"
	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/config"
	"github.com/ricardocosta23/formularioguias/dispatch"
	"github.com/ricardocosta23/formularioguias/forms"
	"github.com/ricardocosta23/formularioguias/httpx"
	"github.com/ricardocosta23/formularioguias/journal"
	"github.com/ricardocosta23/formularioguias/log"
	"github.com/ricardocosta23/formularioguias/monday"
	"github.com/ricardocosta23/formularioguias/routes"
	"github.com/ricardocosta23/formularioguias/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	jnl, err := journal.Open(cfg.JournalDB)
	if err != nil {
		log.Fatal("main.journal.open:", err)
	}
	defer jnl.Close()

	err = httpx.SeedAdmin(jnl.DB(), cfg.AdminUser, cfg.AdminPassword)
	if err != nil {
		log.Fatal("main.seed_admin:", err)
	}

	formStore := store.NewFileStore(cfg.FormsDir)
	boardsRegistry := boards.Load(cfg.BoardsFile)
	sink := monday.NewClient(cfg.MondayToken)
	bearerServer := httpx.NewBearerServer(jnl.DB(), cfg)

	app := app.App{
		Store:  formStore,
		Boards: boardsRegistry,
		Sink:   sink,
		Generator: &forms.Generator{
			Store:  formStore,
			Boards: boardsRegistry,
			Sink:   sink,
		},
		Processor: &dispatch.Processor{
			Sink:    sink,
			Boards:  boardsRegistry,
			Journal: jnl,
		},
		Journal:      jnl,
		BearerServer: bearerServer,
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
