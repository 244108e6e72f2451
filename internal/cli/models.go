package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chaz8081/langid/internal/models"
)

func (a *app) modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List and download whisper models",
		Args:  usageArgs(cobra.NoArgs),
	}
	cmd.PersistentFlags().StringVar(&a.cfg.ComputeType, "compute_type", a.cfg.ComputeType, "model precision: int8 selects quantized weights")

	cmd.AddCommand(a.modelsListCmd(), a.modelsDownloadCmd())
	return cmd
}

func (a *app) modelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the known model sizes, their files and whether they are cached",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.resolve(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}

			for _, size := range models.Sizes() {
				file, err := models.WhisperFile(size, cfg.ComputeType)
				if err != nil {
					return err
				}
				info, statErr := os.Stat(filepath.Join(cfg.ModelsDir, file))
				cached := statErr == nil && info.Size() > 0
				if err := writeObject(a.stdout,
					field{"model", size},
					field{"file", file},
					field{"cached", cached},
				); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) modelsDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <size>...",
		Short: "Download whisper models into the models directory",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resolve(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}

			log := a.logger(cfg)
			for _, size := range args {
				path, err := models.EnsureWhisper(cmd.Context(), cfg.ModelsDir, size, cfg.ComputeType, true, a.stderr)
				if err != nil {
					return err
				}
				log.Info("model ready", "model", size, "path", path)
				if err := writeObject(a.stdout, field{"model", size}, field{"path", path}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
