package banner

import (
	"fmt"

	"engagekit/pkg/config"
)

const banner = `
███████╗███╗   ██╗ ██████╗  █████╗  ██████╗ ███████╗██╗  ██╗██╗████████╗
██╔════╝████╗  ██║██╔════╝ ██╔══██╗██╔════╝ ██╔════╝██║ ██╔╝██║╚══██╔══╝
█████╗  ██╔██╗ ██║██║  ███╗███████║██║  ███╗█████╗  █████╔╝ ██║   ██║
██╔══╝  ██║╚██╗██║██║   ██║██╔══██║██║   ██║██╔══╝  ██╔═██╗ ██║   ██║
███████╗██║ ╚████║╚██████╔╝██║  ██║╚██████╔╝███████╗██║  ██╗██║   ██║
╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝  ╚═╝╚═╝   ╚═╝
`

// Print writes the startup banner and an operator-facing summary of the
// effective configuration.
func Print(cfg *config.Config, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Ledger:   %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	if cfg == nil {
		return
	}

	transport := cfg.Transport.Kind
	if transport == "" {
		transport = "memory"
	}
	fmt.Printf("Transport: %s", transport)
	if transport == "redis" && cfg.Transport.Redis.Addr != "" {
		fmt.Printf(" (%s)", cfg.Transport.Redis.Addr)
	}
	fmt.Println()

	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		fmt.Printf("Metrics:  http://%s/metrics\n", cfg.Metrics.Addr)
	} else {
		fmt.Println("Metrics:  disabled")
	}

	fmt.Println("\n== Production? =================================================")
	if cfg.Platform.AuthToken != "" {
		fmt.Println("- Platform auth token: OK")
	} else {
		fmt.Println("- Platform auth token: MISSING (vote submission will be rejected)")
	}
	if cfg.Votes.SweepCron != "" {
		fmt.Printf("- Vote sweep: cron=%s\n", cfg.Votes.SweepCron)
	} else {
		fmt.Println("- Vote sweep: default schedule")
	}
	if cfg.Logging.InteractionsDir != "" {
		fmt.Printf("- Interactions sink: %s\n", cfg.Logging.InteractionsDir)
	} else {
		fmt.Println("- Interactions sink: disabled")
	}

	fmt.Println("\n== Logs: =================================================")
}
