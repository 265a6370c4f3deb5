package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-iform/framework/app"
	"github.com/km-arc/go-iform/framework/form"
	gohttp "github.com/km-arc/go-iform/framework/http"
)

func main() {
	application, err := app.New() // loads .env automatically
	if err != nil {
		log.Fatal().Err(err).Msg("register providers")
	}
	if err := application.Boot(); err != nil {
		log.Fatal().Err(err).Msg("boot")
	}
	logger := application.Logger()

	signup, err := application.Compile(
		form.Define("username", form.Rules{"required": true, "len": []int{3, 10}}),
		form.Define("email", "email"),
		form.Define("password", form.Rules{"required": true, "len": 3}),
		form.Define("avatar", form.Rules{
			"defaultValue": func(ctx form.RequestContext) string {
				return "/avatar/" + ctx.Input("username") + ".png"
			},
		}),
		form.Define("age", "int"),
		form.Define("floatField", "float"),
		form.Define("birth", form.Rules{
			"type": form.Date,
			"toDate": form.ConvertFunc(func(c *form.Conversion) {
				if t, err := time.Parse("2006-01-02", c.String()); err == nil {
					c.Set(t)
				}
			}),
		}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("compile signup form")
	}

	r := application.Router()

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{
			"message": "Welcome to go-iform!",
			"version": application.Version(),
		})
	})

	r.With(gohttp.Validate(gohttp.Static(signup), gohttp.FormOptions{
		Name:    "signup",
		Metrics: application.Metrics(),
	})).Post("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Result(gohttp.FormResult(req))
	})

	if err := application.Run(); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
