package app

import (
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/prometheus/client_golang/prometheus"

	"yashubustudio/tasador/estimator"
	"yashubustudio/tasador/internal/logger"
)

const fyneAppID = "studio.yashubu.tasador"

// Options configures the desktop entry point.
type Options struct {
	ConfigPath string
}

// Run loads the artifacts and starts the desktop UI. It returns once the
// window is closed.
func Run(opts Options) error {
	cfg, err := estimator.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, err := estimator.NewService(cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer svc.Close()

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc, log)
	u.w.ShowAndRun()
	return nil
}
