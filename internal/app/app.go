package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/metrics"
	"storefront/pkg/razorpay"
	"storefront/pkg/sms"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memoryDSN backs users and content when the catalog, orders and carts live in memory.
const memoryDSN = "file:storefront?mode=memory&cache=shared"

// Options overrides collaborators, mainly for tests. Zero values are built from the
// config.
type Options struct {
	DB        *gorm.DB
	Sender    sms.Sender
	Gateway   services.PaymentGateway
	Publisher services.EventPublisher
	Metrics   *metrics.Metrics
}

// Stores holds the repositories the app runs on.
type Stores struct {
	Products    repositories.ProductRepository
	Orders      repositories.OrderRepository
	Carts       repositories.CartRepository
	Users       repositories.UserRepository
	Collections repositories.CollectionRepository
	Banners     repositories.BannerRepository
	Quotes      repositories.QuoteRepository
	NavItems    repositories.NavItemRepository
	BestSelling repositories.BestSellingRepository
}

// App is the wired storefront: the fiber app plus what main needs to run the
// background consumer and shut down cleanly.
type App struct {
	Fiber   *fiber.App
	Stores  Stores
	Sender  sms.Sender
	Metrics *metrics.Metrics

	closers []func(context.Context) error
}

// Close releases the stores opened by NewApp.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewApp builds the stores, services and HTTP surface described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Metrics: opts.Metrics}
	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}

	if err := a.openStores(ctx, cfg, opts.DB); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Sender = opts.Sender
	if a.Sender == nil {
		a.Sender = newSender(cfg, log)
	}
	gateway := opts.Gateway
	if gateway == nil {
		gateway = razorpay.NewClient(razorpay.Config{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			BaseURL:   cfg.RazorpayBaseURL,
		})
	}

	s := a.Stores
	orderOpts := []services.OrderOption{services.WithOrderIDPrefix(cfg.OrderIDPrefix)}
	if opts.Publisher != nil {
		orderOpts = append(orderOpts, services.WithPublisher(opts.Publisher))
	}
	orderService := services.NewOrderService(s.Orders, s.Products, s.Carts, log.Named("orders"), a.Metrics, orderOpts...)
	paymentService := services.NewPaymentService(gateway, log.Named("payments"), a.Metrics)
	cartService := services.NewCartService(s.Carts, s.Products)
	productService := services.NewProductService(s.Products)
	authService := services.NewAuthService(s.Users, a.Sender, services.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTTTL,
		ExposeOTP: cfg.IsDevelopment(),
	}, log.Named("auth"))
	collectionService := services.NewCollectionService(s.Collections)
	contentService := services.NewContentService(s.Banners, s.Quotes, s.NavItems)
	bestSellingService := services.NewBestSellingService(s.BestSelling, s.Products)

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.Observability(log, a.Metrics))
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"store":  cfg.StoreDriver,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))

	debug := cfg.IsDevelopment()
	api := app.Group("/api", middleware.Timeout(cfg.DBTimeout))
	handlers.NewAuthHandler(authService, debug).RegisterRoutes(api)
	handlers.NewProductHandler(productService, debug).RegisterRoutes(api)
	handlers.NewCartHandler(cartService, debug).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, paymentService, debug).RegisterRoutes(api)
	handlers.NewCollectionHandler(collectionService, debug).RegisterRoutes(api)
	handlers.NewContentHandler(contentService, debug).RegisterRoutes(api)
	handlers.NewBestSellingHandler(bestSellingService, debug).RegisterRoutes(api)

	a.Fiber = app
	return a, nil
}

// openStores selects the catalog, order and cart backend. Users and content are
// always kept in the SQL database.
func (a *App) openStores(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if db == nil {
		driver, dsn := cfg.DBDriver, cfg.DatabaseDSN
		if cfg.StoreDriver == config.StoreMemory {
			driver, dsn = database.DriverSQLite, memoryDSN
		}
		var err error
		db, err = database.Open(driver, dsn)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	a.Stores = Stores{
		Users:       repositories.NewGORMUserRepository(db),
		Collections: repositories.NewGORMCollectionRepository(db),
		Banners:     repositories.NewGORMBannerRepository(db),
		Quotes:      repositories.NewGORMQuoteRepository(db),
		NavItems:    repositories.NewGORMNavItemRepository(db),
		BestSelling: repositories.NewGORMBestSellingRepository(db),
	}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		a.Stores.Products = repositories.NewMockProductRepository()
		a.Stores.Orders = repositories.NewMockOrderRepository()
		a.Stores.Carts = repositories.NewMockCartRepository()
	case config.StoreGORM:
		a.Stores.Products = repositories.NewGORMProductRepository(db)
		a.Stores.Orders = repositories.NewGORMOrderRepository(db)
		a.Stores.Carts = repositories.NewGORMCartRepository(db)
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := repositories.ConnectMongo(connectCtx, cfg.MongoURI)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)
		mdb := client.Database(cfg.MongoDB)
		if err := repositories.EnsureMongoIndexes(connectCtx, mdb); err != nil {
			return err
		}
		a.Stores.Products = repositories.NewMongoProductRepository(mdb)
		a.Stores.Orders = repositories.NewMongoOrderRepository(mdb)
		a.Stores.Carts = repositories.NewMongoCartRepository(mdb)
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	return nil
}

// newSender uses Twilio when it is configured and logs messages otherwise.
func newSender(cfg *config.Config, log *zap.Logger) sms.Sender {
	sender, err := sms.NewTwilioSender(sms.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioPhoneNumber,
	}, log.Named("sms"))
	if err != nil {
		log.Warn("twilio not configured, SMS messages will only be logged")
		return sms.NewLogSender(log.Named("sms"))
	}
	return sender
}

// errorHandler renders errors that escaped the handlers, such as unknown routes, in
// the common envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
