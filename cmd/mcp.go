package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	coreconfig "github.com/AzielCF/az-agent/core/config"
	"github.com/AzielCF/az-agent/ui/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the sales agent MCP server using SSE",
	Long:  `Start an MCP (Model Context Protocol) server using Server-Sent Events (SSE) transport. External AI agents can list free slots, book or cancel appointments, capture leads and classify visitor intent.`,
	Run:   mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("host", "", "Host for the SSE MCP server")
	mcpCmd.Flags().String("mcp-port", "", "Port for the SSE MCP server")
}

func mcpServer(cmd *cobra.Command, _ []string) {
	cfg := &coreconfig.Global.MCP
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetString("mcp-port"); port != "" {
		cfg.Port = port
	}

	mcpServer := server.NewMCPServer(
		"AI Sales Agent MCP Server",
		coreconfig.Global.App.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)

	schedulingHandler := mcp.InitMcpScheduling(availability, bookingService, leadService, orchestrator)
	schedulingHandler.AddSchedulingTools(mcpServer)

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port)),
		server.WithKeepAlive(true),
	)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	logrus.Printf("Starting sales agent MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s/sse", addr)
	logrus.Printf("Message endpoint: http://%s/message", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] Reception of termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("Failed to start SSE server: %v", err)
	}
}
