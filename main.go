package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tuxx/fancydash/internal"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("c", "", "Path to configuration file")
	flag.StringVar(configPath, "config", "", "Path to configuration file")

	outputMode := flag.String("o", "", "Output mode: active or all (overrides the config file)")
	flag.StringVar(outputMode, "output-mode", "", "Output mode: active or all (overrides the config file)")

	writeConfig := flag.Bool("write-config", false, "Write a default configuration file if none exists")

	debugMode := flag.Bool("log", false, "Enable debug logging")

	showVersion := flag.Bool("v", false, "Print the version and exit")
	flag.BoolVar(showVersion, "version", false, "Print the version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Println("fancydash " + version)
		return
	}

	if *debugMode {
		internal.InitLogger("debug", true)
		internal.Debug("Debug logging enabled")
	}

	if *writeConfig {
		if err := internal.GenerateDefaultConfigFile(); err != nil {
			internal.Fatal("Failed to write default config: %v", err)
		}
	}

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		internal.Fatal("%v", err)
	}
	internal.InitLogger(config.LogLevel, *debugMode)

	if *outputMode != "" {
		config.OutputMode = *outputMode
		if err := internal.ValidateConfig(&config); err != nil {
			internal.Fatal("%v", err)
		}
	}

	if os.Getenv("WAYLAND_DISPLAY") == "" && os.Getenv("XDG_SESSION_TYPE") != "wayland" {
		internal.Fatal("No Wayland session detected")
	}

	panel, err := internal.NewPanel(config)
	if err != nil {
		internal.Fatal("Failed to initialize panel: %v", err)
	}
	if err := panel.Run(); err != nil {
		internal.Fatal("%v", err)
	}
}
