package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/fwforge/fwportal/internal/config"
	"github.com/fwforge/fwportal/internal/filestore"
	"github.com/fwforge/fwportal/internal/handler"
	"github.com/fwforge/fwportal/internal/job"
	"github.com/fwforge/fwportal/internal/middleware"
	"github.com/fwforge/fwportal/internal/repo"
	"github.com/fwforge/fwportal/internal/schedule"
	"github.com/fwforge/fwportal/internal/service"
	"github.com/fwforge/fwportal/internal/store"
)

const maxUploadSize = 256 * 1024 * 1024

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fwportal",
		Short: "firmware portal backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the portal server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, db)
		},
	}

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "prepare database and artifact storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return provision(cfg)
		},
	}

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "interactive admin console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return runConsole(cfg, db)
		},
	}

	rootCmd.AddCommand(runCmd, provisionCmd, consoleCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	if cfg.InsecureJWTSecret {
		logutil.GetLogger(context.Background()).Error("jwt_secret is not set: tokens are signed with the built-in fallback secret, which is unsafe for production")
	}
	db, err := repo.Open(cfg.DB.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(db, cfg.DB.MigrationsDir); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, db, nil
}

type services struct {
	verify   *service.VerificationService
	tokens   *service.TokenService
	firmware *service.FirmwareService
	files    filestore.Store
	codes    *store.MemoryStore
}

func buildServices(cfg *config.Config, db *sql.DB) (*services, error) {
	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}
	codes := store.NewMemoryStore()
	tokens := service.NewTokenService([]byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	verify := service.NewVerificationService(
		codes,
		service.NewEmailSender(cfg.Mail),
		service.NewCodeGenerator(),
		tokens,
		service.VerificationConfig{
			CodeTTL:        time.Duration(cfg.Auth.CodeTTLMinutes) * time.Minute,
			ResendCooldown: time.Duration(cfg.Auth.ResendCooldownSeconds) * time.Second,
			MaxAttempts:    cfg.Auth.MaxAttempts,
			DefaultRole:    cfg.Auth.DefaultRole,
			AdminEmails:    cfg.Auth.AdminEmails,
		},
	)
	firmware := service.NewFirmwareService(repo.NewFirmwareRepo(db), files)
	return &services{verify: verify, tokens: tokens, firmware: firmware, files: files, codes: codes}, nil
}

func runServer(cfg *config.Config, db *sql.DB) error {
	defer db.Close()
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	svcs, err := buildServices(cfg, db)
	if err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(svcs.verify, svcs.tokens),
		Firmware:  handler.NewFirmwareHandler(svcs.firmware, maxUploadSize),
		Files:     handler.NewFileHandler(svcs.files),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewChallengeSweepJob(svcs.codes), "*/5 * * * *"); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// provision is the one-off setup path: migrations already ran in setup,
// so what remains is making the artifact directory and sanity-checking
// the deliverability-critical config.
func provision(cfg *config.Config) error {
	log := logutil.GetLogger(context.Background())
	if cfg.FileStore.Type == "local" {
		data, _ := cfg.FileStore.Data.(map[string]interface{})
		if dir, _ := data["dir"].(string); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create artifact dir: %w", err)
			}
			log.Info("artifact directory ready", zap.String("dir", dir))
		}
	}
	if _, err := filestore.New(cfg.FileStore); err != nil {
		return fmt.Errorf("file store config: %w", err)
	}
	if cfg.Mail.Host == "" || cfg.Mail.From == "" {
		log.Warn("mail is not configured: verification codes cannot be delivered")
	}
	if cfg.InsecureJWTSecret {
		log.Error("jwt_secret is not set: set a strong secret before exposing this portal")
	}
	log.Info("provisioning complete")
	return nil
}

func runConsole(cfg *config.Config, db *sql.DB) error {
	svcs, err := buildServices(cfg, db)
	if err != nil {
		return err
	}
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("fwportal console. Type 'help' for commands.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help":
			fmt.Println("commands: list [channel] | show <id> | notes <id> | delete <id> | send-admin-code <email> | exit")
		case "list":
			channel := ""
			if len(args) > 0 {
				channel = args[0]
			}
			items, err := svcs.firmware.List(ctx, channel)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, fw := range items {
				fmt.Printf("%s  %s %s [%s] %d bytes\n", fw.ID, fw.Name, fw.Version, fw.Channel, fw.Size)
			}
		case "show":
			if len(args) != 1 {
				fmt.Println("usage: show <id>")
				continue
			}
			fw, err := svcs.firmware.Get(ctx, args[0])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("%s %s [%s]\nchecksum: %s\nfile key: %s\nuploaded by: %s\n", fw.Name, fw.Version, fw.Channel, fw.Checksum, fw.FileKey, fw.UploadedBy)
		case "notes":
			if len(args) != 1 {
				fmt.Println("usage: notes <id>")
				continue
			}
			html, err := svcs.firmware.RenderNotes(ctx, args[0])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(html)
		case "delete":
			if len(args) != 1 {
				fmt.Println("usage: delete <id>")
				continue
			}
			if err := svcs.firmware.Delete(ctx, args[0]); err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("deleted")
		case "send-admin-code":
			if len(args) != 1 {
				fmt.Println("usage: send-admin-code <email>")
				continue
			}
			if err := svcs.verify.SendAdminCode(ctx, args[0]); err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("code sent")
		case "exit", "quit":
			return nil
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}
