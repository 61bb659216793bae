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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/version"
)

// Exit codes
const (
	exitOK         = 0
	exitGeneral    = 1
	exitAuth       = 2
	exitNetwork    = 3
	exitValidation = 4
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dev        bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "scout",
		Short: "Search GitHub users and filter them by derived profile attributes",
		Long: `SirSeer Scout searches GitHub users, enriches each profile with an
activity index, linked organizations and highlighted hiring keywords, and
filters the results. A search keeps paging upstream until at least one user
passes the filters, so callers never see an empty page while more results exist.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "Development mode: console logging and an in-memory result cache")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newSearchCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	if errors.Is(err, scouterrors.ErrValidation) {
		return exitValidation
	}

	if errors.Is(err, scouterrors.ErrInvalidToken) ||
		errors.Is(err, scouterrors.ErrRateLimit) {
		return exitAuth
	}

	if errors.Is(err, scouterrors.ErrNetworkFailure) {
		return exitNetwork
	}

	return exitGeneral
}
