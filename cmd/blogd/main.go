package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	blog "github.com/inkpress/go-blog"
	"github.com/inkpress/go-blog/middleware/authware"
)

type App struct {
	config *blog.EnvConfig
	bunDB  *bun.DB
	auther blog.Authenticator
	repo   blog.RepositoryManager
	srv    *fiber.App
}

func main() {
	cfg, err := blog.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	app := &App{config: cfg}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		log.Fatal(err)
	}

	WithHTTPServer(app)

	go func() {
		if err := app.srv.Listen(":" + cfg.Port); err != nil {
			log.Fatal(err)
		}
	}()

	WaitExitSignal()

	if err := app.srv.Shutdown(); err != nil {
		log.Println("shutdown error:", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseDSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := blog.CreateSchema(ctx, db); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = blog.NewRepositoryManager(db)

	return app.repo.Validate()
}

func WithAuth(ctx context.Context, app *App) error {
	provider := blog.NewUserProvider(app.repo.Users())

	app.auther = blog.NewAuthenticator(provider, app.repo.Users(), app.config)

	return nil
}

func WithHTTPServer(app *App) {
	srv := fiber.New(fiber.Config{
		AppName: "blogd",
	})

	// the token rides back to clients in the same header it arrives on
	srv.Use(cors.New(cors.Config{
		ExposeHeaders: app.config.TokenHeader,
	}))

	requireAuth := authware.New(authware.Config{
		Resolver:    app.auther,
		TokenHeader: app.config.TokenHeader,
	})

	requireAdmin := authware.New(authware.Config{
		Resolver:     app.auther,
		TokenHeader:  app.config.TokenHeader,
		RequiredRole: blog.RoleAdmin,
	})

	users := blog.NewUserController(
		blog.WithUserRepo(app.repo),
		blog.WithUserAuther(app.auther),
		blog.WithUserDebug(app.config.Debug),
	)
	users.TokenHeader = app.config.TokenHeader

	posts := blog.NewPostController(
		blog.WithPostRepo(app.repo),
	)

	blog.RegisterRoutes(srv, users, posts, requireAuth, requireAdmin)

	app.srv = srv
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
