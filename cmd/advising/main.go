// Command advising browses a course catalog and looks up prerequisites.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/brequin/brequin/advising/advisor"
	"github.com/brequin/brequin/advising/catalog"
	"github.com/brequin/brequin/advising/config"
	"github.com/brequin/brequin/advising/db"
	"github.com/brequin/brequin/advising/loader"
	"github.com/brequin/brequin/advising/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	logLevel   string
	color      string
	source     string
	strict     bool

	cfg    *config.Cfg
	logger *logrus.Logger
	closer io.Closer
	in     io.Reader
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand(&app{in: os.Stdin, out: os.Stdout}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "advising [catalog-file] [course-id]",
		Short: "Browse a course catalog and look up prerequisites",
		Long: `advising loads a course catalog (one "id,title,prerequisite,..." line per
course, an HTML catalog page, or the PostgreSQL store) and runs a menu to
list the courses in order or show one course's prerequisites. course-id
overrides default_course, which "." selects at the find prompt.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closer != nil {
				a.closer.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMenu(cmd.Context(), args)
		},
	}
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultConfigPath, "configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.color, "color", "", "colour output (auto, always, never)")
	flags.StringVar(&a.source, "source", "", "where to read the catalog (file, db)")
	flags.BoolVar(&a.strict, "strict", false, "abort a load at the first malformed line")

	root.AddCommand(newListCommand(a), newFindCommand(a), newImportCommand(a), newAddCommand(a), newUpdateCommand(a), newRemoveCommand(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = a.strict
	}
	if a.color != "" {
		if cfg.Color, err = config.ParseColorMode(a.color); err != nil {
			return err
		}
	}
	if a.source != "" {
		if cfg.Source, err = config.ParseSource(a.source); err != nil {
			return err
		}
	}

	logger, closer, err := logging.New(logging.LogConfig{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	return nil
}

func (a *app) catalogPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.CatalogPath
}

func (a *app) printer() *advisor.Printer {
	var file *os.File
	if f, ok := a.out.(*os.File); ok {
		file = f
	}
	return advisor.NewPrinter(a.out, advisor.ColorEnabled(a.cfg.Color, file))
}

func (a *app) loadOptions() loader.Options {
	return loader.Options{Strict: a.cfg.Strict, Logger: a.logger}
}

func (a *app) connect(ctx context.Context) (*db.Database, error) {
	database, err := db.Connect(ctx, a.cfg.ConnectionString)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// buildIndex fills a new index from the configured source for the one-shot
// commands.
func (a *app) buildIndex(ctx context.Context, args []string) (*catalog.Index, error) {
	ix := catalog.NewIndex()

	if a.cfg.Source == config.SourceDatabase {
		database, err := a.connect(ctx)
		if err != nil {
			return nil, err
		}
		defer database.Close()

		n, err := database.LoadIndex(ctx, ix)
		if err != nil {
			return nil, err
		}
		a.logger.WithField("courses", n).Debug("Catalog read from database")
		return ix, nil
	}

	_, err := loader.LoadPath(ctx, a.catalogPath(args), ix, a.loadOptions())
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		a.logger.Warn(loadErr.Error())
		err = nil
	}
	return ix, err
}

func (a *app) runMenu(ctx context.Context, args []string) error {
	ix := catalog.NewIndex()

	if a.cfg.Source == config.SourceDatabase {
		var err error
		if ix, err = a.buildIndex(ctx, args); err != nil {
			return err
		}
	}

	if len(args) > 1 {
		a.cfg.DefaultCourse = strings.ToUpper(args[1])
	}

	state := advisor.NewState(ix, a.catalogPath(args), a.printer(), a.logger)
	state.LoadOptions = a.loadOptions()
	state.DefaultCourse = a.cfg.DefaultCourse

	err := state.Run(ctx, a.in)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [catalog-file]",
		Short: "Print every course in id order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := a.buildIndex(cmd.Context(), args)
			if err != nil {
				return err
			}
			a.printer().Schedule(ix)
			return nil
		},
	}
}

func newFindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find [course-id] [catalog-file]",
		Short: "Print one course and its prerequisites",
		Long:  "find prints one course and its prerequisites. The course id defaults to the configured default_course (MATH201).",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := a.cfg.DefaultCourse
			if len(args) > 0 {
				id = args[0]
				args = args[1:]
			}

			ix, err := a.buildIndex(cmd.Context(), args)
			if err != nil {
				return err
			}

			state := advisor.NewState(ix, a.catalogPath(args), a.printer(), a.logger)
			state.Find(id)
			return nil
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [catalog-file]",
		Short: "Save a catalog file to the PostgreSQL store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := a.catalogPath(args)

			ix := catalog.NewIndex()
			result, err := loader.LoadPath(ctx, path, ix, a.loadOptions())
			var loadErr *loader.LoadError
			if err != nil && !errors.As(err, &loadErr) {
				return err
			}

			database, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.SaveCourses(ctx, firstOfEachId(ix)); err != nil {
				return err
			}

			a.logger.WithFields(logrus.Fields{"source": path, "courses": result.Loaded, "skipped": result.Skipped}).Info("Catalog imported")
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d courses from %s.\n", result.Loaded, path)
			return nil
		},
	}
}

// firstOfEachId returns the courses in id order, keeping only the record
// Search would return for an id that was loaded more than once.
func firstOfEachId(ix *catalog.Index) []catalog.Course {
	var courses []catalog.Course
	ix.Walk(func(course catalog.Course) bool {
		if len(courses) == 0 || courses[len(courses)-1].ID != course.ID {
			courses = append(courses, course)
		}
		return true
	})
	return courses
}

// courseFromArgs builds a course from "<id> <title> [prerequisite...]".
func courseFromArgs(args []string) catalog.Course {
	course := catalog.Course{ID: strings.ToUpper(args[0]), Title: args[1]}
	for _, prerequisite := range args[2:] {
		course.Prerequisites = append(course.Prerequisites, strings.ToUpper(prerequisite))
	}
	return course
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <course-id> <title> [prerequisite...]",
		Short: "Add a course to the PostgreSQL store",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			course := courseFromArgs(args)

			database, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			created, err := database.AddCourse(ctx, course)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "Course Id %s already exists.\n", course.ID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Course added successfully.")
			return nil
		},
	}
}

func newUpdateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <course-id> <title> [prerequisite...]",
		Short: "Replace a stored course's title and prerequisites",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			course := courseFromArgs(args)

			database, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			updated, err := database.UpdateCourse(ctx, course)
			if err != nil {
				return err
			}
			if !updated {
				fmt.Fprintf(cmd.OutOrStdout(), "Course Id %s not found.\n", course.ID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Course updated successfully.")
			return nil
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <course-id>",
		Short: "Delete a course from the PostgreSQL store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			database, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			deleted, err := database.DeleteCourse(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "Course Id %s not found.\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Course %s removed.\n", args[0])
			return nil
		},
	}
}
