package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"paginaflex/internal/auth"
	"paginaflex/internal/domain/carts"
	"paginaflex/internal/domain/storage"
	"paginaflex/internal/filters"
	"paginaflex/internal/importer"
	"paginaflex/internal/mailer"
	"paginaflex/internal/ratelimiter"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	carts         carts.Store
	filters       *filters.Engine
	importers     *importer.Registry
	stager        *importer.Stager
	// wg tracks background imports and mails so shutdown can wait for them
	wg sync.WaitGroup
}

type config struct {
	addr        string
	db          dbConfig
	redis       redisConfig
	env         string
	mail        mailConfig
	auth        authConfig
	rateLimiter rateLimiterConfig
	imports     importConfig
	orders      orderConfig
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	refreshSecret string
	secret        string
	iss           string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type redisConfig struct {
	addr    string
	pw      string
	db      int
	cartTTL time.Duration
}

type rateLimiterConfig struct {
	requestsPerTimeFrame int
	timeFrame            time.Duration
	enabled              bool
}

type importConfig struct {
	stagingDir  string
	maxUploadMB int
}

type orderConfig struct {
	numberSalt string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(app.RateLimiterMiddleware)

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Post("/authentication/logout", app.logoutHandler)

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/products", app.listProductsHandler)
				r.Get("/products/{productID}", app.getProductHandler)
				r.Get("/categories", app.listCategoriesHandler)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", app.getCartHandler)
				r.Delete("/", app.clearCartHandler)
				r.Post("/items", app.addCartItemHandler)
				r.Put("/items/{productID}", app.updateCartItemHandler)
				r.Delete("/items/{productID}", app.removeCartItemHandler)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", app.createOrderHandler)
				r.Get("/", app.listOrdersHandler)
				r.Get("/{orderID}", app.getOrderHandler)
				r.With(app.RequireAdmin).Patch("/{orderID}/status", app.updateOrderStatusHandler)
			})

			r.Route("/admin/products", func(r chi.Router) {
				r.Use(app.RequireAdmin)
				r.Post("/{productID}/image", app.uploadProductImageHandler)
			})

			r.Route("/imports", func(r chi.Router) {
				r.Use(app.RequireAdmin)
				r.Get("/kinds", app.listImportKindsHandler)
				r.Get("/active", app.activeImportHandler)
				r.Get("/logs", app.listImportLogsHandler)
				r.Route("/logs/{logID}", func(r chi.Router) {
					r.Get("/progress", app.importProgressHandler)
					r.Get("/errors.csv", app.downloadImportErrorsHandler)
					r.Post("/cancel", app.cancelImportHandler)
				})
				r.Route("/{kind}/uploads", func(r chi.Router) {
					r.Post("/", app.uploadImportFileHandler)
					r.Get("/{token}/preview", app.previewImportHandler)
					r.Post("/{token}/execute", app.executeImportHandler)
				})
			})
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("waiting for background tasks")
	app.wg.Wait()

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
