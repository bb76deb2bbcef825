package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/freekieb7/pebble/config"
	"github.com/freekieb7/pebble/http"
	"github.com/freekieb7/pebble/server"
	"github.com/freekieb7/pebble/telemetry"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tel, err := telemetry.Setup(ctx, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer tel.Shutdown(context.Background())

	router := server.NewRouter()
	router.Handle(http.MaskOf(http.MethodGet, http.MethodHead), "/",
		func(c *server.Client, headers *http.HeaderSet) bool {
			return c.SendAnswer(server.NewSimpleAnswer(http.CodeOk, http.MIMETextPlain, []byte("hello world")), false)
		})
	router.Handle(http.MaskOf(http.MethodPost), "/echo",
		func(c *server.Client, headers *http.HeaderSet) bool {
			form := server.NewFormPost("message")
			if !c.FetchContent(headers, form) {
				return c.SendAnswer(server.NewCodeAnswer(http.CodeBadRequest), true)
			}
			return c.Reply(http.CodeOk, form.Value("message"), false)
		}, http.HeaderContentType, http.HeaderContentLength)

	srv, err := server.New(cfg, router, tel.Logger, tel)
	if err != nil {
		return err
	}
	if err := srv.Create(cfg.Port); err != nil {
		return err
	}
	defer srv.Close()

	for ctx.Err() == nil {
		if err := srv.Loop(20); err != nil {
			return err
		}
	}
	return nil
}
