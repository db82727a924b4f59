package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/dotsetgreg/taskwise/pkg/bus"
	"github.com/dotsetgreg/taskwise/pkg/channels"
	"github.com/dotsetgreg/taskwise/pkg/config"
	"github.com/dotsetgreg/taskwise/pkg/dialog"
	"github.com/dotsetgreg/taskwise/pkg/logger"
	"github.com/dotsetgreg/taskwise/pkg/memory"
	"github.com/dotsetgreg/taskwise/pkg/providers"
	"github.com/dotsetgreg/taskwise/pkg/reminder"
	"github.com/dotsetgreg/taskwise/pkg/tasks"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "taskwise"

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// formatBuildInfo returns build time and go version info
func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func onboard() {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		reader := bufio.NewReader(os.Stdin)
		response, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Printf("Error reading input: %v\n", readErr)
			fmt.Println("Aborted.")
			return
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.WorkspacePath(), 0755); err != nil {
		fmt.Printf("Error creating workspace: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s is ready!\n", appName)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Add your API key to", configPath)
	fmt.Println("     Get one at: https://openrouter.ai/keys")
	fmt.Println("  2. (Gateway mode) Add your Discord bot token to channels.discord.token")
	fmt.Println("  3. Chat locally: taskwise chat -m \"add buy milk\"")
	fmt.Println("  4. Run gateway: taskwise gateway")
	fmt.Println("  5. Check readiness: taskwise status")
}

func validateRuntimeConfig(cfg *config.Config, requireDiscord bool) error {
	configPath := getConfigPath()
	if err := providers.ValidateProviderConfig(cfg); err != nil {
		return fmt.Errorf("%w (set it in %s or via environment)", err, configPath)
	}
	if requireDiscord && strings.TrimSpace(cfg.Channels.Discord.Token) == "" {
		return fmt.Errorf("channels.discord.token is required in %s or TASKWISE_CHANNELS_DISCORD_TOKEN", configPath)
	}
	return nil
}

// openOrchestrator wires the stores, provider, and dialogue layer together.
// The returned cleanup closes both databases.
func openOrchestrator(cfg *config.Config) (*dialog.Orchestrator, *tasks.SQLiteStore, func(), error) {
	if err := os.MkdirAll(cfg.WorkspacePath(), 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("create workspace: %w", err)
	}

	taskStore, err := tasks.NewSQLiteStore(cfg.TaskDBPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open task store: %w", err)
	}

	memStore, err := memory.NewSQLiteStore(cfg.MemoryDBPath())
	if err != nil {
		taskStore.Close()
		return nil, nil, nil, fmt.Errorf("open memory store: %w", err)
	}

	provider, err := providers.CreateProvider(cfg)
	if err != nil {
		taskStore.Close()
		memStore.Close()
		return nil, nil, nil, err
	}

	orch := dialog.NewOrchestrator(taskStore, memory.NewGateway(memStore), provider, dialog.Options{
		Model:        cfg.Assistant.Model,
		HistoryLimit: cfg.Assistant.HistoryLimit,
		MaxTokens:    cfg.Assistant.MaxTokens,
		Temperature:  cfg.Assistant.Temperature,
	})

	cleanup := func() {
		memStore.Close()
		taskStore.Close()
	}
	return orch, taskStore, cleanup, nil
}

func chatCmd() {
	message := ""
	sessionKey := "cli:default"

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			logger.SetLevel(logger.DEBUG)
			fmt.Println("🔍 Debug mode enabled")
		case "-m", "--message":
			if i+1 < len(args) {
				message = args[i+1]
				i++
			}
		case "-s", "--session":
			if i+1 < len(args) {
				sessionKey = args[i+1]
				i++
			}
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := validateRuntimeConfig(cfg, false); err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}

	orch, _, cleanup, err := openOrchestrator(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	userID := cfg.Assistant.DefaultUser

	if message != "" {
		ctx := context.Background()
		turn, err := orch.ProcessTurn(ctx, sessionKey, userID, message)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s %s\n", appName, turn.Response)
	} else {
		fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n\n", appName)
		interactiveMode(orch, sessionKey, userID)
	}
}

func interactiveMode(orch *dialog.Orchestrator, sessionKey, userID string) {
	prompt := fmt.Sprintf("%s You: ", appName)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".taskwise_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})

	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(orch, sessionKey, userID)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !dispatchInput(orch, sessionKey, userID, line) {
			return
		}
	}
}

func simpleInteractiveMode(orch *dialog.Orchestrator, sessionKey, userID string) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", appName)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !dispatchInput(orch, sessionKey, userID, line) {
			return
		}
	}
}

// dispatchInput runs one REPL line. It returns false when the session ends.
func dispatchInput(orch *dialog.Orchestrator, sessionKey, userID, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	if input == "exit" || input == "quit" {
		fmt.Println("Goodbye!")
		return false
	}

	ctx := context.Background()
	turn, err := orch.ProcessTurn(ctx, sessionKey, userID, input)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return true
	}

	fmt.Printf("\n%s %s\n\n", appName, turn.Response)
	return true
}

func gatewayCmd() {
	args := os.Args[2:]
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			logger.SetLevel(logger.DEBUG)
			fmt.Println("🔍 Debug mode enabled")
			break
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := validateRuntimeConfig(cfg, cfg.Channels.Discord.Enabled); err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}

	orch, taskStore, cleanup, err := openOrchestrator(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	msgBus := bus.NewMessageBus()
	loop := dialog.NewLoop(orch, msgBus)

	channelManager, err := channels.NewManager(cfg, msgBus)
	if err != nil {
		fmt.Printf("Error creating channel manager: %v\n", err)
		os.Exit(1)
	}

	enabledChannels := channelManager.GetEnabledChannels()
	fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabledChannels, ", "))
	fmt.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reminderService *reminder.Service
	if cfg.Reminders.Enabled {
		reminderService, err = reminder.NewService(taskStore, msgBus, cfg.Reminders)
		if err != nil {
			fmt.Printf("Error creating reminder service: %v\n", err)
			os.Exit(1)
		}
		reminderService.Start(ctx)
		fmt.Println("✓ Reminder service started")
	}

	if err := channelManager.StartAll(ctx); err != nil {
		fmt.Printf("Error starting channels: %v\n", err)
		cancel()
		if reminderService != nil {
			reminderService.Stop()
		}
		os.Exit(1)
	}

	go loop.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()
	if reminderService != nil {
		reminderService.Stop()
	}
	channelManager.StopAll(context.Background())
	msgBus.Close()
	fmt.Println("✓ Gateway stopped")
}

func statusCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	configPath := getConfigPath()

	fmt.Printf("%s Status\n", appName)
	fmt.Printf("Version: %s\n", formatVersion())
	build, _ := formatBuildInfo()
	if build != "" {
		fmt.Printf("Build: %s\n", build)
	}
	fmt.Println()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config:", configPath, "✓")
	} else {
		fmt.Println("Config:", configPath, "✗")
	}

	workspace := cfg.WorkspacePath()
	if _, err := os.Stat(workspace); err == nil {
		fmt.Println("Workspace:", workspace, "✓")
	} else {
		fmt.Println("Workspace:", workspace, "✗")
	}
	if _, err := os.Stat(cfg.TaskDBPath()); err == nil {
		fmt.Println("Task DB:", cfg.TaskDBPath(), "✓")
	} else {
		fmt.Println("Task DB:", cfg.TaskDBPath(), "not initialized")
	}
	if _, err := os.Stat(cfg.MemoryDBPath()); err == nil {
		fmt.Println("Memory DB:", cfg.MemoryDBPath(), "✓")
	} else {
		fmt.Println("Memory DB:", cfg.MemoryDBPath(), "not initialized")
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Provider: %s\n", providers.ActiveProviderName(cfg))
		fmt.Printf("Model: %s\n", cfg.Assistant.Model)

		status := func(enabled bool) string {
			if enabled {
				return "✓"
			}
			return "not set"
		}
		apiReady := providers.ValidateProviderConfig(cfg) == nil
		discordReady := strings.TrimSpace(cfg.Channels.Discord.Token) != ""

		fmt.Println("Provider API:", status(apiReady))
		fmt.Println("Discord token:", status(discordReady))
		fmt.Println("Chat ready:", status(apiReady))
		fmt.Println("Gateway ready:", status(apiReady && discordReady))
	}
}

func historyCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	memStore, err := memory.NewSQLiteStore(cfg.MemoryDBPath())
	if err != nil {
		fmt.Printf("Error opening memory store: %v\n", err)
		return
	}
	defer memStore.Close()

	ctx := context.Background()

	if len(os.Args) >= 3 && !strings.HasPrefix(os.Args[2], "-") {
		sessionID := os.Args[2]
		messages, err := memStore.Recent(ctx, sessionID, 50)
		if err != nil {
			fmt.Printf("Error reading session: %v\n", err)
			return
		}
		if len(messages) == 0 {
			fmt.Printf("No messages in session %s\n", sessionID)
			return
		}
		fmt.Printf("\nSession %s:\n", sessionID)
		for _, msg := range messages {
			ts := time.UnixMilli(msg.CreatedAtMS).Format("2006-01-02 15:04")
			fmt.Printf("  [%s] %s: %s\n", ts, msg.Role, msg.Content)
		}
		return
	}

	sessions, err := memStore.ListSessions(ctx, 20)
	if err != nil {
		fmt.Printf("Error listing sessions: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No conversation history.")
		return
	}

	fmt.Println("\nRecent sessions:")
	fmt.Println("----------------")
	for _, sess := range sessions {
		updated := time.UnixMilli(sess.UpdatedAtMS).Format("2006-01-02 15:04")
		fmt.Printf("  %s (%d messages, last %s)\n", sess.ID, sess.MessageCount, updated)
	}
	fmt.Println("\nUse 'taskwise history <session>' to show messages.")
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".taskwise", "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}
