package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edumarket/internal/config"
	"github.com/edumarket/internal/logger"
	"github.com/edumarket/internal/provider"
	"github.com/edumarket/internal/router"
	"github.com/edumarket/internal/worker"

	"gorm.io/gorm"
)

// BuildRunner 按运行模式装配服务
// api 只提供 HTTP；worker 负责异步定级与定时巡检；all 两者都启动。
func BuildRunner(cfg *config.Config, db *gorm.DB, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !isValidMode(mode) {
		return nil, fmt.Errorf("unknown run mode: %s", mode)
	}

	container, err := provider.NewContainer(cfg, db)
	if err != nil {
		return nil, err
	}

	var services []Service
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
			if err != nil {
				container.Close()
				return nil, err
			}
			services = append(services, workerService)
		} else {
			logger.Warnw("app_queue_disabled", "mode", mode)
		}
		if strings.TrimSpace(cfg.Grade.SweepCron) != "" {
			scheduler, err := worker.NewScheduler(cfg.Grade, container)
			if err != nil {
				container.Close()
				return nil, err
			}
			services = append(services, scheduler)
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, fmt.Errorf("no services initialized for mode %s (check queue and grade.sweep_cron)", mode)
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if opts.DB == nil {
		return errors.New("db is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.DB, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}

func isValidMode(mode string) bool {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return true
	default:
		return false
	}
}
