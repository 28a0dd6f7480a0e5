package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/family-organizer/internal/config"
	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/models"
	"github.com/foxxcyber/family-organizer/internal/services"
)

var (
	// Global flags
	dryRun bool

	cfg    *config.Config
	logger *zap.Logger
)

// SeedFile describes a family and one week of meals and shopping
type SeedFile struct {
	Owner struct {
		ExternalID string `yaml:"externalId"`
		Email      string `yaml:"email"`
		FirstName  string `yaml:"firstName"`
		LastName   string `yaml:"lastName"`
	} `yaml:"owner"`
	Family    string                            `yaml:"family"`
	WeekStart string                            `yaml:"weekStart"`
	Meals     map[string]map[string]interface{} `yaml:"meals"`
	Shopping  []struct {
		Name     string `yaml:"name"`
		Quantity string `yaml:"quantity"`
		Category string `yaml:"category"`
	} `yaml:"shopping"`
}

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Database maintenance for the family organizer",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env
		godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = config.NewLogger(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cmd.Context(), cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		return database.RunMigrations(cmd.Context(), db)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [file.yaml]",
	Short: "Load a family, a week of meals and a shopping list from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var clearWeekCmd = &cobra.Command{
	Use:   "clear-week [external-id] [week-start]",
	Short: "Delete every meal in a family's week",
	Args:  cobra.ExactArgs(2),
	RunE:  runClearWeek,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Preview changes without writing to database")
	rootCmd.AddCommand(migrateCmd, seedCmd, clearWeekCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	seed, err := readSeedFile(args[0])
	if err != nil {
		return err
	}

	window, err := services.ParseWeekStart(seed.WeekStart)
	if err != nil {
		return fmt.Errorf("invalid weekStart %q: %w", seed.WeekStart, err)
	}

	grid, err := seed.clientGrid()
	if err != nil {
		return err
	}

	if dryRun {
		drafts, warnings := services.DraftsFromGrid(grid, window)
		fmt.Printf("DRY RUN - week of %s\n", window.Start.Format("2006-01-02"))
		for _, d := range drafts {
			fmt.Printf("  %-9s %-9s %s\n", d.Day, d.Meal.MealType, d.Meal.Title)
		}
		for _, w := range warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		return nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		return err
	}

	user, err := db.EnsureUser(ctx, models.Identity{
		ExternalID: seed.Owner.ExternalID,
		Email:      seed.Owner.Email,
		FirstName:  seed.Owner.FirstName,
		LastName:   seed.Owner.LastName,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure owner: %w", err)
	}

	familyID, err := ensureFamily(ctx, db, user, seed.Family)
	if err != nil {
		return err
	}

	saver := services.NewMealPlanSaver(db, logger)
	result, err := saver.SaveWeek(ctx, services.SaveWeekInput{
		WeekStart: window.Start,
		Grid:      grid,
		FamilyID:  familyID,
		ActorID:   user.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to save meals: %w", err)
	}
	for _, w := range result.Warnings {
		logger.Warn("seed warning", zap.String("warning", w))
	}

	items := make([]models.ShoppingItem, 0, len(seed.Shopping))
	for _, s := range seed.Shopping {
		items = append(items, models.ShoppingItem{Name: s.Name, Quantity: s.Quantity, Category: s.Category, IsManual: true})
	}
	if len(items) == 0 {
		meals, err := db.ListMealsInRange(ctx, familyID, window.Start, window.End)
		if err != nil {
			return err
		}
		items = services.GenerateShoppingItems(meals, services.MealIngredientCategorizer())
	}

	list, err := services.NewShoppingListService(db, logger).Save(ctx, familyID, window, items)
	if err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}

	logger.Info("seed complete",
		zap.String("family_id", familyID.String()),
		zap.Int("meals", len(result.Saved)),
		zap.Int64("replaced", result.Deleted),
		zap.Int("shopping_items", len(list.Items)))
	return nil
}

func runClearWeek(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	window, err := services.ParseWeekStart(args[1])
	if err != nil {
		return fmt.Errorf("invalid week start %q: %w", args[1], err)
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := db.GetUserByExternalID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to find user %q: %w", args[0], err)
	}
	if user.FamilyID == nil {
		return errors.New("user is not part of a family")
	}

	if dryRun {
		meals, err := db.ListMealsInRange(ctx, *user.FamilyID, window.Start, window.End)
		if err != nil {
			return err
		}
		fmt.Printf("DRY RUN - would delete %d meals\n", len(meals))
		return nil
	}

	deleted, err := db.ClearMealsInRange(ctx, *user.FamilyID, window.Start, window.End)
	if err != nil {
		return err
	}
	logger.Info("week cleared", zap.Int64("deleted", deleted))
	return nil
}

func readSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if strings.TrimSpace(seed.Owner.ExternalID) == "" {
		return nil, errors.New("seed file needs owner.externalId")
	}
	return &seed, nil
}

// clientGrid converts the YAML meals block into the grid shape clients submit
func (s *SeedFile) clientGrid() (models.ClientGrid, error) {
	grid := make(models.ClientGrid, len(s.Meals))
	for day, slots := range s.Meals {
		cells := make(map[string]json.RawMessage, len(slots))
		for mealType, cell := range slots {
			raw, err := json.Marshal(cell)
			if err != nil {
				return nil, fmt.Errorf("invalid meal %s %s: %w", day, mealType, err)
			}
			cells[mealType] = raw
		}
		grid[day] = cells
	}
	return grid, nil
}

func ensureFamily(ctx context.Context, db *database.DB, user *models.User, name string) (uuid.UUID, error) {
	if user.FamilyID != nil {
		return *user.FamilyID, nil
	}
	if strings.TrimSpace(name) == "" {
		name = user.DisplayName() + "'s Family"
	}
	family, err := db.CreateFamily(ctx, user.ID, name, cfg.MaxFamilyMembers)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create family: %w", err)
	}
	return family.ID, nil
}
