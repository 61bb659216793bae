// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-scout/internal/filter"
	"github.com/sirseerhq/sirseer-scout/internal/metadata"
	"github.com/sirseerhq/sirseer-scout/internal/output"
	"github.com/sirseerhq/sirseer-scout/internal/search"
	"github.com/sirseerhq/sirseer-scout/internal/state"
	"github.com/sirseerhq/sirseer-scout/internal/version"
)

// trackedSearcher is the part of *search.Service the CLI drives.
type trackedSearcher interface {
	SearchUsersInfiniteTracked(ctx context.Context, req search.Request, tracker *metadata.Tracker) (*search.Page, error)
}

// searchFlags holds the search command's flag values.
type searchFlags struct {
	limit      int
	cursor     string
	all        bool
	resume     bool
	filters    filter.Filters
	extended   bool
	location   string
	language   string
	outputFile string
	token      string
}

func newSearchCommand(root *rootOptions) *cobra.Command {
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search GitHub users and stream matches as NDJSON",
		Long: `Search GitHub users and write the users that pass the filters as NDJSON.

Each step pages upstream until at least one user passes the filters. By default
one such step runs and the cursor for the next one is printed; --all keeps going
until the results are exhausted. --all and --resume checkpoint the cursor after
every step, so an interrupted run can continue with --resume.

Authentication is required via GitHub token:
  - Use --token flag to provide token directly
  - Or set GITHUB_TOKEN environment variable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSearchCommand(ctx, root, args[0], flags, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Users per upstream page, 1-100 (default from config)")
	cmd.Flags().StringVar(&flags.cursor, "cursor", "", "Start after this cursor from a previous run")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Keep searching until the results are exhausted")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Continue from the checkpoint of a previous run of the same search")

	cmd.Flags().BoolVar(&flags.filters.HasWebsiteURL, "has-website", false, "Only users with a website")
	cmd.Flags().BoolVar(&flags.filters.IsContactable, "contactable", false, "Only users with an email, website or social account")
	cmd.Flags().BoolVar(&flags.filters.IsHireable, "hireable", false, "Only users whose bio mentions hiring, jobs, freelancing or projects")
	cmd.Flags().BoolVar(&flags.filters.NoCompany, "no-company", false, "Only users without a company")
	cmd.Flags().BoolVar(&flags.filters.RecentlyActive, "recently-active", false, "Only users who updated their profile in the last two months")

	cmd.Flags().BoolVar(&flags.extended, "extended", false, "Request contact and hireability fields")
	cmd.Flags().StringVar(&flags.location, "location", "", "Add a location: qualifier")
	cmd.Flags().StringVar(&flags.language, "language", "", "Add a language: qualifier")
	cmd.Flags().StringVar(&flags.outputFile, "output", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flags.token, "token", "", "GitHub personal access token (overrides the token environment variable)")

	return cmd
}

func runSearchCommand(ctx context.Context, root *rootOptions, query string, flags *searchFlags, progress io.Writer) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Server.DevMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	token, err := resolveToken(flags.token, cfg)
	if err != nil {
		return err
	}

	svc := search.New(newSearchClient(token, cfg, logger),
		search.WithLogger(logger),
		search.WithDefaultLimit(cfg.Search.DefaultLimit),
	)

	job := &searchJob{
		searcher: svc,
		query:    query,
		flags:    *flags,
		stateDir: cfg.Search.StateDir,
		progress: progress,
		logger:   logger,
	}
	return job.run(ctx, os.Stdout)
}

// searchJob is one CLI search run.
type searchJob struct {
	searcher trackedSearcher
	query    string
	flags    searchFlags
	stateDir string
	progress io.Writer
	logger   *zap.Logger
}

// run executes the job, writing users to the output file or to stdout.
func (j *searchJob) run(ctx context.Context, stdout io.Writer) error {
	if j.flags.resume && j.flags.cursor != "" {
		return search.NewValidationError("--cursor and --resume cannot be used together")
	}

	req := search.Request{
		Query:    j.query,
		Limit:    j.flags.limit,
		Cursor:   j.flags.cursor,
		Filters:  j.flags.filters,
		Extended: j.flags.extended,
		Location: j.flags.location,
		Language: j.flags.language,
	}

	checkpointing := j.flags.all || j.flags.resume
	statePath := state.FilePath(j.stateDir, search.BuildQuery(j.query, j.flags.location, j.flags.language), j.flags.filters.String())
	checkpoint := &state.SearchState{Query: j.query, Filters: j.flags.filters.String(), Extended: j.flags.extended}

	var (
		resumed  bool
		previous *metadata.SearchRef
	)
	if j.flags.resume {
		saved, err := state.LoadState(statePath)
		switch {
		case err == nil:
			if !saved.HasNextPage {
				fmt.Fprintf(j.progress, "Search %q already completed (%d users written). Nothing to resume.\n", j.query, saved.UsersWritten)
				return nil
			}
			if saved.Extended != j.flags.extended {
				return search.NewValidationError(fmt.Sprintf(
					"--extended=%t does not match the checkpointed run (--extended=%t); rerun without --resume to start over",
					j.flags.extended, saved.Extended))
			}
			checkpoint = saved
			req.Cursor = saved.Cursor
			resumed = true
			previous = j.previousRun()
		case errors.Is(err, state.ErrNoState):
			fmt.Fprintln(j.progress, "No checkpoint found, starting from the first page")
		default:
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
	} else if checkpointing {
		// A fresh --all run must not leave an older run's cursor behind if
		// it fails before its first checkpoint.
		if err := state.DeleteState(statePath); err != nil {
			return err
		}
	}

	var writer output.UserWriter
	if j.flags.outputFile == "" {
		writer = output.NewWriter(stdout)
	} else {
		fileWriter, err := output.OpenFileWriter(j.flags.outputFile, resumed)
		if err != nil {
			return err
		}
		writer = fileWriter
	}
	defer writer.Close()

	var (
		tracker   = metadata.New()
		basePages = checkpoint.PagesFetched
		baseUsers = checkpoint.UsersWritten
		written   int
		lastPage  *search.Page
	)

	for {
		page, err := j.searcher.SearchUsersInfiniteTracked(ctx, req, tracker)
		if err != nil {
			fmt.Fprint(j.progress, "\r\033[K")
			return err
		}
		lastPage = page

		for _, user := range page.Items {
			if err := writer.WriteUser(user); err != nil {
				return fmt.Errorf("failed to write user: %w", err)
			}
			written++
		}

		if checkpointing {
			if page.PageInfo.EndCursor != "" {
				checkpoint.Cursor = page.PageInfo.EndCursor
			}
			checkpoint.HasNextPage = page.PageInfo.HasNextPage
			checkpoint.PagesFetched = basePages + tracker.Stats().Pages
			checkpoint.UsersWritten = baseUsers + written
			checkpoint.UpdatedAt = time.Now()
			if err := state.SaveState(checkpoint, statePath); err != nil {
				return fmt.Errorf("failed to save checkpoint: %w", err)
			}
		}

		stats := tracker.Stats()
		fmt.Fprintf(j.progress, "\rSearching %q... %d users written | %d of ~%d profiles scanned",
			j.query, written, stats.Retrieved, page.TotalCount)

		if !j.flags.all || !page.PageInfo.HasNextPage {
			break
		}
		req.Cursor = page.PageInfo.EndCursor
	}

	fmt.Fprint(j.progress, "\r\033[K")
	stats := tracker.Stats()
	fmt.Fprintf(j.progress, "Wrote %d users from %d profiles in %s\n",
		written, stats.Retrieved, tracker.Elapsed().Round(time.Millisecond))
	if !j.flags.all && lastPage.PageInfo.HasNextPage {
		fmt.Fprintf(j.progress, "More results available. Continue with --cursor %s\n", lastPage.PageInfo.EndCursor)
	}

	if checkpointing {
		j.recordRun(tracker, req, checkpoint, statePath, resumed, previous)
	}
	return nil
}

// previousRun links a resumed run to the metadata of the last run of the
// same query, if any.
func (j *searchJob) previousRun() *metadata.SearchRef {
	prev, err := metadata.LoadLatestMetadata(j.stateDir, j.query)
	if err != nil {
		j.logger.Warn("Failed to load previous search metadata", zap.Error(err))
		return nil
	}
	if prev == nil {
		return nil
	}
	return &metadata.SearchRef{
		SearchID:    prev.SearchID,
		CompletedAt: prev.Results.CompletedAt,
	}
}

// recordRun saves the run's metadata and stamps its id on the checkpoint.
// Failures are logged; the users are already written.
func (j *searchJob) recordRun(tracker *metadata.Tracker, req search.Request, checkpoint *state.SearchState, statePath string, resumed bool, previous *metadata.SearchRef) {
	md := tracker.GenerateMetadata(version.Version, metadata.SearchParams{
		Query:    j.query,
		Limit:    req.Limit,
		Cursor:   j.flags.cursor,
		Filters:  j.flags.filters.String(),
		Extended: j.flags.extended,
		FetchAll: j.flags.all,
	}, resumed, previous)

	if err := metadata.SaveMetadata(md, j.stateDir); err != nil {
		j.logger.Warn("Failed to save search metadata", zap.Error(err))
		return
	}

	checkpoint.LastSearchID = md.SearchID
	if err := state.SaveState(checkpoint, statePath); err != nil {
		j.logger.Warn("Failed to update checkpoint", zap.Error(err))
	}
}
