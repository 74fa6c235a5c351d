// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/unclebandit/listing-campaigns/internal/config"
	"github.com/unclebandit/listing-campaigns/internal/db"
	"github.com/unclebandit/listing-campaigns/internal/logging"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/repository"
)

// templateNamespace derives stable template ids so reseeding updates rows
// in place.
var templateNamespace = uuid.MustParse("6f1c7d52-3c1e-4b6e-9a0f-5d2b8e4a7c10")

type seedFile struct {
	Templates []model.Template `yaml:"templates"`
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var file string
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "seeder",
		Short: "Apply the schema and load default campaign templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return seed(cmd.Context(), cfg, logger, file, !skipMigrate)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed/templates.yaml", "template seed file")
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema first")
	return cmd
}

func seed(ctx context.Context, cfg *config.Config, logger *zap.Logger, file string, migrate bool) error {
	templates, err := loadTemplates(file)
	if err != nil {
		return err
	}

	conn, err := db.Open(ctx, cfg.DB.DSN(), logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if migrate {
		if err := db.Migrate(ctx, conn); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	repo := &repository.TemplateRepository{DB: conn}
	for i := range templates {
		t := &templates[i]
		if err := repo.Upsert(ctx, t); err != nil {
			return fmt.Errorf("upsert template %q: %w", t.Name, err)
		}
		logger.Info("seeded template",
			zap.String("name", t.Name),
			zap.String("trigger_status", string(t.TriggerStatus)),
			zap.Int("social_slots", len(t.SocialSchedule)))
	}
	logger.Info("seeding completed", zap.Int("templates", len(templates)))
	return nil
}

// loadTemplates parses and checks a seed file. Ids are derived from the
// status and name.
func loadTemplates(file string) ([]model.Template, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	defaults := map[model.ListingStatus]string{}
	for i := range sf.Templates {
		t := &sf.Templates[i]
		if !t.TriggerStatus.Valid() {
			return nil, fmt.Errorf("template %q: unknown trigger status %q", t.Name, t.TriggerStatus)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("template %d: name is required", i)
		}
		if t.IsDefault {
			if prev, ok := defaults[t.TriggerStatus]; ok {
				return nil, fmt.Errorf("templates %q and %q are both default for %s", prev, t.Name, t.TriggerStatus)
			}
			defaults[t.TriggerStatus] = t.Name
		}
		t.ID = uuid.NewSHA1(templateNamespace, []byte(string(t.TriggerStatus)+"/"+t.Name))
	}
	return sf.Templates, nil
}
