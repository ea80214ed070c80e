package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	taskflow "github.com/goliatone/go-taskflow"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *taskflow.AppConfig
	bunDB  *bun.DB
	auth   *taskflow.Auther
	auther *taskflow.RouteAuthenticator
	repo   taskflow.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *taskflow.AppConfig {
	return a.config
}

func (a *App) SetRepository(repo taskflow.RepositoryManager) {
	a.repo = repo
}

func (a *App) SetDB(db *bun.DB) {
	a.bunDB = db
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) SetHTTPServer(srv router.Server[*fiber.App]) {
	a.srv = srv
}

func (a *App) SetAuthenticator(auth *taskflow.Auther) {
	a.auth = auth
}

func (a *App) SetHTTPAuth(auther *taskflow.RouteAuthenticator) {
	a.auther = auther
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("taskflow"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := taskflow.LoadConfig()
	if err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	APIRoutes(app)

	app.srv.Serve(cfg.GetServer().GetAddr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*taskflow.User)(nil))
	persistence.RegisterModel((*taskflow.Task)(nil))

	cfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))
	migrationsFS, err := fs.Sub(taskflow.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(context.Background()); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.SetDB(client.DB())
	app.SetRepository(taskflow.NewRepositoryManager(client.DB()))

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		a = router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       app.Config().GetName(),
			UnescapePath:  true,
			StrictRouting: false,
		}))

		a.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(app.Config().GetServer().GetCORSOrigins(), ","),
			AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			AllowCredentials: true,
		}))

		return a
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Get("/api/health", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	app.SetHTTPServer(srv)

	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	if err := app.repo.Validate(); err != nil {
		return err
	}

	userProvider := taskflow.NewUserProvider(userTrackerAdapter{users: app.repo.Users()})
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := taskflow.NewAuthenticator(userProvider, cfg)
	authenticator.WithLogger(app.GetLogger("auth:authz"))

	app.SetAuthenticator(authenticator)

	httpAuth, err := taskflow.NewHTTPAuthenticator(authenticator, cfg, app.repo.Users())
	if err != nil {
		return err
	}

	httpAuth.WithLogger(app.GetLogger("auth:http"))

	app.SetHTTPAuth(httpAuth)

	return nil
}

func APIRoutes(app *App) {
	cfg := app.Config().GetAuth()

	protected := []router.MiddlewareFunc{
		app.auther.ProtectedRoute(cfg, app.auther.MakeClientRouteAuthErrorHandler(false)),
		app.auther.WithUser(),
	}

	authController := taskflow.NewAuthController(
		taskflow.WithAuthRepo(app.repo),
		taskflow.WithAuthAuther(app.auther),
		taskflow.WithAuthLogger(app.GetLogger("auth:ctrl")),
	)
	authController.RegisterRoutes(app.srv.Router().Group("/api/auth"), protected...)

	tasksController := taskflow.NewTasksController(
		taskflow.WithTasksRepo(app.repo),
		taskflow.WithTasksLogger(app.GetLogger("tasks:ctrl")),
	)
	tasksController.RegisterRoutes(app.srv.Router().Group("/api/tasks"), protected...)

	usersController := taskflow.NewUsersController(
		taskflow.WithUsersRepo(app.repo),
		taskflow.WithUsersLogger(app.GetLogger("users:ctrl")),
	)
	usersController.RegisterRoutes(app.srv.Router().Group("/api/users"), protected...)
}

type userTrackerAdapter struct {
	users taskflow.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*taskflow.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *taskflow.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *taskflow.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
