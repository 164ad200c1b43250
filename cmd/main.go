package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	adjustWalletHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/adjust_wallet"
	createCarpetBookingHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/create_carpet_booking"
	createVehicleBookingHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/create_vehicle_booking"
	deleteBookingHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/delete_booking"
	getAttendantHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/get_attendant"
	getBookingHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/get_booking"
	getSyncStatusHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/get_sync_status"
	getWalletHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/get_wallet"
	listAttendantsHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/list_attendants"
	listBookingsHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/list_bookings"
	listWalletsHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/list_wallets"
	markAttendantPaidHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/mark_attendant_paid"
	reportConnectivityHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/report_connectivity"
	runSyncHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/run_sync"
	setAttendantAvailabilityHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/set_attendant_availability"
	setSessionHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/set_session"
	settleWalletsHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/settle_wallets"
	syncStreamHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/sync_stream"
	updateBookingHandler "github.com/m04kA/SMC-WashSync/internal/api/handlers/update_booking"
	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
	"github.com/m04kA/SMC-WashSync/internal/config"
	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	attendantRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/attendant"
	bookingRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/booking"
	queueRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/queue"
	"github.com/m04kA/SMC-WashSync/internal/infra/storage/schema"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	attendantsService "github.com/m04kA/SMC-WashSync/internal/service/attendants"
	bookingsService "github.com/m04kA/SMC-WashSync/internal/service/bookings"
	"github.com/m04kA/SMC-WashSync/internal/service/queue"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
	walletsService "github.com/m04kA/SMC-WashSync/internal/service/wallets"
	"github.com/m04kA/SMC-WashSync/pkg/dbmetrics"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
	"github.com/m04kA/SMC-WashSync/pkg/metrics"
	"github.com/m04kA/SMC-WashSync/pkg/session"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
	"github.com/m04kA/SMC-WashSync/pkg/telemetry"
	"github.com/m04kA/SMC-WashSync/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-WashSync...")
	log.Info("Configuration loaded from config.toml")

	// Контекст жизни агента: отменяется при остановке
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Трассировка (если включена)
	shutdownTracing, err := telemetry.Setup(appCtx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing: %v", err)
	}
	if cfg.Telemetry.Enabled {
		log.Info("Tracing enabled, exporting to %s", cfg.Telemetry.Endpoint)
	}

	// Открываем локальное хранилище
	dialect, err := sqlbuilder.ParseDialect(cfg.Storage.Driver)
	if err != nil {
		log.Fatal("Unsupported storage driver: %v", err)
	}

	db, err := sql.Open(cfg.Storage.Driver, cfg.Storage.DataSource())
	if err != nil {
		log.Fatal("Failed to open local store: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Storage.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Storage.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.PingContext(appCtx); err != nil {
		log.Fatal("Failed to ping local store: %v", err)
	}
	log.Info("Local store opened (driver=%s)", cfg.Storage.Driver)

	wrappedDB := dbmetrics.Wrap(db, metricsCollector)
	if err := schema.Migrate(appCtx, wrappedDB); err != nil {
		log.Fatal("Failed to migrate local store: %v", err)
	}

	if cfg.Metrics.Enabled {
		dbmetrics.CollectPoolStats(db, metricsCollector,
			time.Duration(cfg.Metrics.PoolStatsInterval)*time.Second, stopMetricsCh)
		log.Info("Database metrics collection started")
	}

	// Клиент сервера
	remoteClient := remoteapi.NewClient(
		cfg.RemoteAPI.URL,
		time.Duration(cfg.RemoteAPI.Timeout)*time.Second,
		log,
		metricsCollector,
	)
	log.Info("Remote API client initialized (url=%s timeout=%ds)", cfg.RemoteAPI.URL, cfg.RemoteAPI.Timeout)

	// Монитор сети: опрос сервера плюс сообщения оболочки через PUT /connectivity
	prober := connectivity.NewNetProber(remoteClient.Ping,
		time.Duration(cfg.Connectivity.ProbeTimeoutSeconds)*time.Second)
	monitor := connectivity.NewMonitor(prober,
		time.Duration(cfg.Connectivity.ProbeIntervalSeconds)*time.Second, log, metricsCollector)
	monitor.Initialize(appCtx)
	log.Info("Connectivity monitor started (online=%t)", monitor.IsOnline())

	// Текущая сессия
	tokens := session.NewHolder(cfg.Sync.Token)

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB, dialect)
	walletRepository := walletRepo.NewRepository(wrappedDB, dialect)
	attendantRepository := attendantRepo.NewRepository(wrappedDB, dialect)
	queueRepository := queueRepo.NewRepository(wrappedDB, dialect)
	txManager := txmanager.NewTransactionManager(wrappedDB)

	// Очередь и движок синхронизации
	queueManager := queue.NewManager(
		queueRepository,
		bookingRepository,
		walletRepository,
		txManager,
		remoteClient,
		monitor,
		metricsCollector,
		log,
	)

	engine := syncengine.NewEngine(
		attendantRepository,
		bookingRepository,
		walletRepository,
		queueRepository,
		queueManager,
		remoteClient,
		monitor,
		tokens,
		txManager,
		metricsCollector,
		log,
	)
	unsubscribeEngine := engine.Start(appCtx)
	go engine.Run(appCtx, cfg.Sync.Interval())
	log.Info("Sync engine started (interval=%ds)", cfg.Sync.IntervalSeconds)

	// Сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		walletRepository,
		attendantRepository,
		queueRepository,
		queueManager,
		remoteClient,
		monitor,
		engine,
		txManager,
		log,
	)
	walletSvc := walletsService.NewService(
		walletRepository,
		queueManager,
		remoteClient,
		monitor,
		engine,
		txManager,
		log,
	)
	attendantSvc := attendantsService.NewService(
		attendantRepository,
		monitor,
		engine,
		log,
	)

	// Инициализируем handlers
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	createVehicleBooking := createVehicleBookingHandler.NewHandler(bookingSvc, log)
	createCarpetBooking := createCarpetBookingHandler.NewHandler(bookingSvc, log)
	updateBooking := updateBookingHandler.NewHandler(bookingSvc, log)
	deleteBooking := deleteBookingHandler.NewHandler(bookingSvc, log)

	listWallets := listWalletsHandler.NewHandler(walletSvc, log)
	getWallet := getWalletHandler.NewHandler(walletSvc, log)
	settleWallets := settleWalletsHandler.NewHandler(walletSvc, log)
	markAttendantPaid := markAttendantPaidHandler.NewHandler(walletSvc, log)
	adjustWallet := adjustWalletHandler.NewHandler(walletSvc, log)

	listAttendants := listAttendantsHandler.NewHandler(attendantSvc, log)
	getAttendant := getAttendantHandler.NewHandler(attendantSvc, log)
	setAttendantAvailability := setAttendantAvailabilityHandler.NewHandler(attendantSvc, log)

	runSync := runSyncHandler.NewHandler(engine, log)
	getSyncStatus := getSyncStatusHandler.NewHandler(engine, monitor, queueManager, log)
	syncStream := syncStreamHandler.NewHandler(engine, monitor, log)
	reportConnectivity := reportConnectivityHandler.NewHandler(monitor, log)
	setSession := setSessionHandler.NewHandler(tokens, engine, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// СОСТОЯНИЕ АГЕНТА (оболочка приложения)
	// ============================================================

	// Токен сессии после входа и обновления
	api.HandleFunc("/session", setSession.Handle).Methods(http.MethodPut)

	// Состояние сети, которое видит ОС
	api.HandleFunc("/connectivity", reportConnectivity.Handle).Methods(http.MethodPut)

	// ============================================================
	// ДАННЫЕ (токен из Authorization или сохранённой сессии)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(tokens))

	// --- Синхронизация ---
	protected.HandleFunc("/sync", runSync.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/sync/status", getSyncStatus.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/sync/stream", syncStream.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/vehicles", createVehicleBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/carpets", createCarpetBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", updateBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}", deleteBooking.Handle).Methods(http.MethodDelete)

	// --- Кошельки ---
	protected.HandleFunc("/wallets", listWallets.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/wallets/settle", settleWallets.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/attendants/{attendantId}/wallet", getWallet.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/attendants/{attendantId}/wallet/mark-paid", markAttendantPaid.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/attendants/{attendantId}/wallet/adjustments", adjustWallet.Handle).Methods(http.MethodPost)

	// --- Сотрудники ---
	protected.HandleFunc("/attendants", listAttendants.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/attendants/{attendantId}", getAttendant.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/attendants/{attendantId}/availability", setAttendantAvailability.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.Telemetry.ServiceName),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем синхронизацию и ждём фоновые циклы
	unsubscribeEngine()
	stopApp()
	engine.Wait()
	log.Info("Sync engine stopped")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to flush traces: %v", err)
	}

	log.Info("Server stopped gracefully")
}
