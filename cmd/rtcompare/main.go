package main

import (
	"flag"
	"fmt"
	"os"

	"rtcompare/internal/app"
	"rtcompare/internal/config"
	"rtcompare/internal/logger"
	"rtcompare/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rtcompare:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration file")
	sessionPath := flag.String("session", "", "path to an exported session payload (JSON)")
	dicomDir := flag.String("dicom", "", "directory holding the CT series and two RTSTRUCT files")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(logger.ParseLevel(cfg.Logging.Level))

	sess, err := loadSession(*sessionPath, *dicomDir, log)
	if err != nil {
		return err
	}

	application, err := app.NewApplication(cfg, sess, log)
	if err != nil {
		return err
	}

	return application.Run()
}

func loadSession(sessionPath, dicomDir string, log logger.Logger) (*session.Session, error) {
	switch {
	case sessionPath != "" && dicomDir != "":
		return nil, fmt.Errorf("-session and -dicom are mutually exclusive")
	case sessionPath != "":
		return session.LoadFile(sessionPath)
	case dicomDir != "":
		return session.BuildFromDICOM(dicomDir, log)
	default:
		return nil, fmt.Errorf("either -session or -dicom is required")
	}
}
