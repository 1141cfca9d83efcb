package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"irpfscan/internal/analysis"
	"irpfscan/internal/cli"
	"irpfscan/internal/dec"
	apphttp "irpfscan/internal/http"
	"irpfscan/internal/log"
	"irpfscan/internal/model"
	"irpfscan/internal/report"
	"irpfscan/internal/rules"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	root := &cobra.Command{
		Use:           "irpfscan",
		Short:         "Análise de conformidade de declarações IRPF (.DEC)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newAnalyzeCmd(logger))
	root.AddCommand(newCompareCmd(logger))
	root.AddCommand(newServeCmd(logger))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "irpfscan:", err)
		os.Exit(1)
	}
}

func newAnalyzeCmd(logger *log.Logger) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <arquivo.DEC>",
		Short: "Analisa uma declaração e imprime o relatório de conformidade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dec.ParseFile(args[0])
			if err != nil {
				return err
			}

			pipeline := analysis.New(rules.DefaultTables(), logger)
			res, err := pipeline.Analyze(cmd.Context(), d)
			if err != nil {
				return err
			}

			return printResult(cmd, res, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emite o resultado como JSON")
	return cmd
}

func newCompareCmd(logger *log.Logger) *cobra.Command {
	var asJSON bool
	var spouse bool

	cmd := &cobra.Command{
		Use:   "compare <arquivo.DEC> <arquivo.DEC> [...]",
		Short: "Compara declarações de exercícios consecutivos do mesmo contribuinte",
		Long: "Compara declarações de exercícios consecutivos do mesmo contribuinte.\n" +
			"Com --spouse, cruza as declarações do casal para o mesmo exercício.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if spouse && len(args) != 2 {
				return fmt.Errorf("--spouse exige exatamente duas declarações")
			}

			decls := make([]*model.Declaration, 0, len(args))
			for _, path := range args {
				d, err := dec.ParseFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				decls = append(decls, d)
			}

			pipeline := analysis.New(rules.DefaultTables(), logger)
			var res *analysis.Result
			var err error
			if spouse {
				res, err = pipeline.CompareSpouses(cmd.Context(), decls[0], decls[1])
			} else {
				res, err = pipeline.Compare(cmd.Context(), decls)
			}
			if err != nil {
				return err
			}

			return printResult(cmd, res, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emite o resultado como JSON")
	cmd.Flags().BoolVar(&spouse, "spouse", false, "trata os arquivos como declarações do casal")
	return cmd
}

func newServeCmd(logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia o servidor HTTP de análise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cli.LoadAndValidateConfig(logger)

			pipeline := analysis.New(rules.DefaultTables(), logger)
			srv := apphttp.NewServer(":"+cfg.Port, pipeline, logger)

			ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("server shutdown error", log.FieldError, err)
				}
			})

			logger.Info("starting irpfscan server", "port", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}

			cli.WaitForShutdown(ctx, done)
			logger.Info("server stopped gracefully")
			return nil
		},
	}
}

func printResult(cmd *cobra.Command, res *analysis.Result, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Render(res))
	return nil
}
