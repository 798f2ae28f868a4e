package generate

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/phase1912/BigFileSorterGenerator/cmd/root"
	"github.com/phase1912/BigFileSorterGenerator/generator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a large unsorted file",
	Long:  `Generate writes random "<number>.<TEXT>" lines until the file is larger than --size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		if err := root.Bind(v, cmd, map[string]string{
			"output":         "generator.output",
			"size":           "generator.size",
			"batch":          "generator.batch",
			"payload-length": "generator.payload-length",
			"seed":           "generator.seed",
		}); err != nil {
			return err
		}
		conf, err := root.LoadConfig(v)
		if err != nil {
			return err
		}
		logger, err := root.NewLogger(conf)
		if err != nil {
			return err
		}
		defer logger.Sync()

		opt, err := conf.Generator.Options()
		if err != nil {
			return err
		}
		opt.Logger = logger

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		result, err := generator.Generate(ctx, opt)
		if err != nil {
			return err
		}
		logger.Info("generated",
			zap.String("output", opt.OutputPath),
			zap.Int64("records", result.Records),
			zap.String("size", humanize.IBytes(uint64(result.Bytes))),
		)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringP("output", "o", "", "Path of the generated file, its directory is created when missing")
	generateCmd.Flags().StringP("size", "s", "2GiB", "Stop once the file is larger than this, e.g. 500MB or 2GiB")
	generateCmd.Flags().IntP("batch", "b", generator.DefaultBatchLines, "Lines written per batch")
	generateCmd.Flags().IntP("payload-length", "", generator.DefaultPayloadLength, "Letters in the text part of each line")
	generateCmd.Flags().Uint64P("seed", "", 0, "Seed for reproducible output, 0 picks one from the clock")

	root.AddCommand(generateCmd)
}
