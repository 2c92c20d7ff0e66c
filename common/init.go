package common

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Laisky/zap"

	"github.com/fuchsia74/openai-limiter/common/logger"
)

var (
	Port         = flag.Int("port", 3000, "the listening port")
	PrintVersion = flag.Bool("version", false, "print version and exit")
	PrintHelp    = flag.Bool("help", false, "print help and exit")
	LogDir       = flag.String("log-dir", "", "specify the log directory")
)

func printHelp() {
	fmt.Println("openai-limiter " + Version + " - token-limiting reverse proxy for OpenAI-compatible backends.")
	fmt.Println("Usage: openai-limiter [--port <port>] [--log-dir <log directory>] [--version] [--help]")
	fmt.Println("Configuration is read from the environment: BACKEND, INPUT_MAX_TOKEN, COT_PARSER, DEBUG, ...")
}

func Init() {
	flag.Parse()

	if *PrintVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	if *PrintHelp {
		printHelp()
		os.Exit(0)
	}

	if *LogDir != "" {
		lg := logger.Logger.With(zap.String("log_dir", *LogDir))

		expanded, err := filepath.Abs(*LogDir)
		if err != nil {
			lg.Fatal("failed to get absolute log dir", zap.Error(err))
		}

		if err = os.MkdirAll(expanded, 0o777); err != nil {
			lg.Fatal("failed to create log dir", zap.Error(err))
		}

		logger.LogDir = expanded
		*LogDir = expanded
	}
}
