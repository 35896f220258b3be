// =============================================================================
// SwarmFlow 主入口
// =============================================================================
// 多 Agent 任务协调引擎的命令行入口
//
// 使用方法:
//
//	swarmflow demo                       # 使用脚本化监督者运行协调演示
//	swarmflow demo --config config.yaml  # 指定配置文件
//	swarmflow version                    # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/coordinator"
	"github.com/BaSui01/swarmflow/supervisor"
	"github.com/BaSui01/swarmflow/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		runDemo(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ demo 命令
// =============================================================================

func runDemo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	// 加载配置
	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting SwarmFlow demo",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// 演示用 Invoker：每个角色返回一个确定性的回答
	invoker := coordinator.InvokerFunc(func(ctx context.Context, agent types.Agent, subtask types.SubTask) (*types.TaskResult, error) {
		return &types.TaskResult{
			Success:    true,
			Output:     fmt.Sprintf("[%s] %s", agent.Role, subtask.Description),
			Confidence: 0.9,
		}, nil
	})

	c, err := coordinator.New(cfg, coordinator.Dependencies{
		Supervisor: supervisor.NewScripted(logger),
		Invoker:    invoker,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to create coordinator", zap.Error(err))
	}
	defer c.Close()

	// 注册每个角色的演示 Agent
	for _, role := range types.AllRoles() {
		agent := types.Agent{
			ID:    fmt.Sprintf("demo-%s", role),
			Role:  role,
			Model: "demo-model",
		}
		if err := c.RegisterAgent(agent); err != nil {
			logger.Fatal("Failed to register agent", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 复合任务全流程
	result := c.ExecuteComplexTask(ctx, types.Task{
		ID:          "demo-task",
		Description: "evaluate a new storage backend",
	})
	printJSON("aggregated result", result)

	// 共识流程
	consensus, err := c.AchieveConsensus(ctx, types.ConsensusTask{
		ID:       "demo-consensus",
		Question: "which storage backend should we adopt",
	})
	if err != nil {
		logger.Error("Consensus failed", zap.Error(err))
	} else {
		printJSON("consensus result", consensus)
	}

	printJSON("performance", c.Performance())
	logger.Info("SwarmFlow demo finished")
}

func printJSON(label string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot render %s: %v\n", label, err)
		return
	}
	fmt.Printf("--- %s ---\n%s\n", label, data)
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("SwarmFlow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`SwarmFlow - Multi-Agent Task Coordination Engine

Usage:
  swarmflow <command> [options]

Commands:
  demo      Run a coordination demo with scripted agents
  version   Show version information
  help      Show this help message

Options for 'demo':
  --config <path>   Path to configuration file (YAML)

Examples:
  swarmflow demo
  swarmflow demo --config /etc/swarmflow/config.yaml
  swarmflow version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
