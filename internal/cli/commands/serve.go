// autodoc serve — run the Scanner and Bridge APIs with the scan scheduler.
package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/bridge"
	"github.com/autodoc-sh/autodoc/internal/gh"
	"github.com/autodoc-sh/autodoc/internal/llm"
	"github.com/autodoc-sh/autodoc/internal/remote"
	"github.com/autodoc-sh/autodoc/internal/scan"
	"github.com/autodoc-sh/autodoc/internal/server"
	"github.com/autodoc-sh/autodoc/internal/wiki"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

func NewServeCmd() *cobra.Command {
	var noSchedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Scanner API, Bridge API, and scheduled scans",
		Example: `  autodoc serve
  autodoc serve --no-schedule`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			cfg := rt.Config

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Shared clients.
			wikiClient := wiki.NewClient(cfg.Wiki.URL, cfg.Wiki.User, cfg.Wiki.Password, rt.Log)
			ollama := llm.NewOllama(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.EmbedModel, rt.Log)
			anything := llm.NewAnythingLLM(cfg.AnythingLLM.URL, cfg.AnythingLLM.APIKey, rt.Log)
			github := gh.NewClient("", cfg.GitHub.Token, rt.Log)

			// Scanner side.
			pool := remote.NewPool(rt.Log)
			defer pool.Close()

			runner := scan.NewRunner(
				scan.NewDockerScanner(cfg.Scan.DockerHosts, rt.Log),
				scan.NewNetworkScanner(cfg.Scan.Subnets, nil, rt.Log),
				scan.NewESXiScanner(cfg.Scan.ESXi, pool, rt.Log),
				scan.NewSynologyScanner(cfg.Scan.Synology, pool, rt.Log),
				ollama,
				wiki.NewScanWriter(wikiClient, rt.Log),
				rt.State,
				rt.Log,
			)

			// Bridge side.
			syncer := bridge.NewSyncer(github, wikiClient, cfg.GitHub.User, rt.State, rt.Log)
			ingester := bridge.NewIngester(anything, wikiClient, rt.Log)
			importer := bridge.NewImporter(wikiClient, rt.Log)

			scannerSrv := server.NewHTTPServer("scanner",
				fmt.Sprintf(":%d", cfg.Ports.Scanner),
				server.NewScannerAPI(runner, rt.State, rt.Log).Handler(), rt.Log)
			bridgeSrv := server.NewHTTPServer("bridge",
				fmt.Sprintf(":%d", cfg.Ports.Bridge),
				server.NewBridgeAPI(syncer, ingester, importer, ollama, rt.Log).Handler(), rt.Log)

			errCh := make(chan error, 2)
			go func() { errCh <- scannerSrv.Serve(ctx) }()
			go func() { errCh <- bridgeSrv.Serve(ctx) }()

			if !noSchedule {
				scheduler := scan.NewScheduler(runner, cfg.Scan.IntervalHours, rt.Log)
				go scheduler.Run(ctx)
			}

			// A bind failure surfaces on errCh before Ready closes.
			select {
			case err := <-errCh:
				stop()
				<-errCh
				return err
			case <-scannerSrv.Ready():
			}
			select {
			case err := <-errCh:
				stop()
				<-errCh
				return err
			case <-bridgeSrv.Ready():
			}

			pprint.Success("Scanner API listening on :%d", cfg.Ports.Scanner)
			pprint.Success("Bridge API listening on :%d", cfg.Ports.Bridge)
			if !noSchedule {
				pprint.Info("Scheduled scans every %dh", cfg.Scan.IntervalHours)
			}
			pprint.Info("Ctrl+C to stop")

			// First server failure stops everything; on signal both drain.
			select {
			case err := <-errCh:
				stop()
				<-errCh
				return err
			case <-ctx.Done():
				err1 := <-errCh
				err2 := <-errCh
				if err1 != nil {
					return err1
				}
				return err2
			}
		},
	}

	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "Disable periodic background scans")
	return cmd
}
