package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/config"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/payroll-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine-go/internal/messaging/kafka"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/payroll-engine-go/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/payroll-engine-go/internal/service/payroll"
	taxService "github.com/cmlabs-hris/payroll-engine-go/internal/service/tax"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	locker := newLocker(cfg)

	notifier := payroll.BatchCompletedNotifier(kafka.NewNoopBatchPublisher())
	if cfg.Kafka.Brokers != "" {
		writer := kafka.NewWriter(cfg.Kafka.Brokers)
		defer writer.Close()
		notifier = kafka.NewBatchPublisher(writer, cfg.Kafka.BatchTopic)
		slog.Info("Publishing batch events to Kafka", "topic", cfg.Kafka.BatchTopic)
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeDirectory := postgresql.NewEmployeeDirectory(db)
	payslipRepo := postgresql.NewPayslipRepository(db)
	batchRepo := postgresql.NewPayrollBatchRepository(db)
	taxConfigRepo := postgresql.NewTaxConfigurationRepository(db)
	adjustmentRepo := postgresql.NewPayrollAdjustmentRepository(db)

	overtimePolicy := payroll.OvertimePolicy{
		StandardMonthlyHours: cfg.Payroll.StandardMonthlyHours,
		Multiplier:           cfg.Payroll.OvertimeMultiplier,
		DailyThresholdHours:  cfg.Payroll.DailyThresholdHours,
	}

	timeEngine := attendanceService.NewTimeEngine(attendanceRepo, locker, attendanceService.Config{
		Location:      cfg.Attendance.Location,
		ExpectedStart: cfg.Attendance.ExpectedStart,
		LateGrace:     cfg.Attendance.LateGrace,
		Cutoff:        cfg.Attendance.Cutoff,
	})
	calculator := payrollService.NewCalculator()
	batchProcessor := payrollService.NewBatchProcessor(
		payslipRepo,
		batchRepo,
		employeeDirectory,
		taxConfigRepo,
		timeEngine,
		adjustmentRepo,
		notifier,
		locker,
		calculator,
		payrollService.BatchConfig{
			Workers:  cfg.Payroll.BatchWorkers,
			Overtime: overtimePolicy,
		},
	)
	batchRunner := payrollService.NewBatchRunner(batchProcessor)
	payslipSvc := payrollService.NewPayslipService(taxConfigRepo, calculator, overtimePolicy)
	taxConfigSvc := taxService.NewConfigurationService(taxConfigRepo)

	scheduler := cron.NewScheduler(cfg.Attendance.Location)
	attendanceJobs := cron.NewAttendanceJobs(timeEngine, cfg.Attendance.SweepSchedule)
	if err := attendanceJobs.RegisterJobs(scheduler); err != nil {
		slog.Error("Failed to register attendance jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, time.Hour)
	attendanceHandler := appHTTP.NewAttendanceHandler(timeEngine, cfg.Payroll.DailyThresholdHours)
	payrollHandler := appHTTP.NewPayrollHandler(payslipSvc, batchProcessor, batchRunner)
	taxHandler := appHTTP.NewTaxConfigurationHandler(taxConfigSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins: cfg.App.AllowedOrigins,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		attendanceHandler,
		payrollHandler,
		taxHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	scheduler.Stop()
	if err := batchRunner.Shutdown(ctx); err != nil {
		slog.Error("Payroll batch runs did not stop in time", "error", err)
	}
	slog.Info("Server exited")
}

// newLocker shares locks through Redis when configured so several instances
// can run against one database.
func newLocker(cfg *config.Config) lock.Locker {
	if cfg.Redis.Addr == "" {
		slog.Info("Using in-process locks")
		return lock.NewMemoryLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Using Redis locks", "addr", cfg.Redis.Addr)
	return lock.NewRedisLocker(client, cfg.Payroll.LockTTL, 50*time.Millisecond)
}
