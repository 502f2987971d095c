package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/js-bridge/bridge"
	"github.com/wippyai/js-bridge/engine"
)

// fileConfig is the YAML session configuration, an alternative to passing
// argv and env on the command line.
type fileConfig struct {
	Args             []string          `yaml:"args"`
	Env              map[string]string `yaml:"env"`
	MemoryLimitPages uint32            `yaml:"memory_limit_pages"`
}

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		cliArgs     = flag.String("argv", "", "Guest arguments (comma-separated)")
		envVars     = flag.String("env", "", "Environment variables (KEY=VAL,KEY2=VAL2)")
		configFile  = flag.String("config", "", "YAML session config (args, env, memory_limit_pages)")
		memPages    = flag.Uint("mem", 0, "Memory limit in 64KB pages (0 = default)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-argv a,b] [-env K=V,...] [-config file.yaml]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(2)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		bridge.SetLogger(logger)
		engine.SetLogger(logger)
	}

	cfg := fileConfig{}
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read config: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: parse config: %v\n", err)
			os.Exit(1)
		}
	}
	if *cliArgs != "" {
		cfg.Args = strings.Split(*cliArgs, ",")
	}
	if *envVars != "" {
		cfg.Env = parseEnv(*envVars)
	}
	if *memPages > 0 {
		cfg.MemoryLimitPages = uint32(*memPages)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	code, err := run(*wasmFile, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(wasmFile string, cfg fileConfig) (int, error) {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	eng, err := engine.NewWithConfig(ctx, &engine.Config{MemoryLimitPages: cfg.MemoryLimitPages})
	if err != nil {
		return 0, fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close(ctx)

	sess := bridge.NewSession(bridge.Config{
		Args: guestArgs(wasmFile, cfg.Args),
		Env:  cfg.Env,
	})
	if _, err := eng.Instantiate(ctx, data, sess); err != nil {
		return 0, fmt.Errorf("instantiate: %w", err)
	}

	return sess.Run(ctx)
}

// guestArgs prepends the program name the guest expects as argv[0].
func guestArgs(wasmFile string, args []string) []string {
	return append([]string{wasmFile}, args...)
}

func parseEnv(s string) map[string]string {
	env := make(map[string]string)
	for _, kv := range strings.Split(s, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return env
}
