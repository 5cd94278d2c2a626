package main

import (
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/cmd/warden/helper"
	"github.com/warden-lab/warden/dao"
	"github.com/warden-lab/warden/dao/query"
	"github.com/warden-lab/warden/internal"
	"github.com/warden-lab/warden/internal/handler"
	"github.com/warden-lab/warden/pkg/accesspolicy"
	"github.com/warden-lab/warden/pkg/alert"
	"github.com/warden-lab/warden/pkg/config"
	"github.com/warden-lab/warden/pkg/cronjob"
	"github.com/warden-lab/warden/pkg/enforcement"
	"github.com/warden-lab/warden/pkg/rollout"
	"github.com/warden-lab/warden/pkg/shadow"
)

// @title						Warden API
// @version					1.0.0
// @description				Namespace-isolation and staged-rollout access control for multi-tenant collections.
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
func main() {
	if err := helper.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}
	cfg := config.GetConfig()

	db := query.GetDB()
	if err := dao.Migrate(db); err != nil {
		klog.Fatalf("Failed to migrate database: %s", err)
	}
	if err := dao.EnsureStatusRows(db); err != nil {
		klog.Fatalf("Failed to backfill migration statuses: %s", err)
	}

	ctx, cancel := helper.SetupSignalContext()
	defer cancel()

	shadowLogger := shadow.NewLogger(db)
	shadowLogger.Start(ctx)

	var alertMgr alert.AlertInterface
	if cfg.SMTP.Host != "" {
		alertMgr = alert.GetAlertMgr()
	}

	controller := rollout.NewController(db, rollout.Config{
		MinShadowDays:   cfg.Rollout.MinShadowDays,
		MinTransactions: cfg.Rollout.MinTransactions,
	}, alertMgr)

	sweep := cronjob.NewSweepManager(db, controller, alertMgr)
	if err := sweep.Start(cfg.Rollout.SweepSpec); err != nil {
		klog.Fatalf("Failed to start eligibility sweep: %s", err)
	}

	backend := internal.Register(&handler.RegisterConfig{
		DB:       db,
		Resolver: accesspolicy.NewResolver(db),
		Gate:     enforcement.NewGate(shadowLogger),
		Shadow:   shadowLogger,
		Rollout:  controller,
	})

	if err := helper.RunServer(ctx, cfg.ServerAddr, backend.R); err != nil {
		klog.Errorf("server error: %s", err)
	}

	sweep.Stop()
	shadowLogger.Stop()
}
