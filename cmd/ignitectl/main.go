// Command ignitectl is the thin command-line shell around an ignitekv
// store: it opens the store rooted at the current working directory, runs
// exactly one of set, get, or rm, and exits. It holds none of the engine's
// logic itself — every subcommand is a handful of lines gluing a cobra
// command to the pkg/ignite API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nilraj/ignitekv/pkg/errors"
	"github.com/nilraj/ignitekv/pkg/ignite"
	"github.com/nilraj/ignitekv/pkg/options"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ignitectl",
		Short:         "Inspect and edit an ignitekv store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSetCmd(), newGetCmd(), newRmCmd())
	return root
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set KEY to VALUE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd.Context(), args[0], args[1])
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), args[0])
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm KEY",
		Short: "Remove KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0])
		},
	}
}

func openStore(ctx context.Context) (*ignite.Instance, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return ignite.NewInstance(ctx, "ignitectl", options.WithDataDir(dir))
}

// runSet prints any failure, including one already reported by the store,
// and exits 0 — set has no failure exit code of its own.
func runSet(ctx context.Context, key, value string) error {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	defer store.Close(ctx)

	if err := store.Set(ctx, key, value); err != nil {
		fmt.Println(err)
	}
	return nil
}

// runGet prints the value on success, "Key not found" (exit 0) when the key
// is simply absent, and the error (exit 0) for anything else.
func runGet(ctx context.Context, key string) error {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	defer store.Close(ctx)

	value, found, err := store.Get(ctx, key)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	if !found {
		fmt.Println("Key not found")
		return nil
	}

	fmt.Println(value)
	return nil
}

// runRemove is the one subcommand with a non-zero exit code: removing an
// absent key prints "Key not found" and exits 1.
func runRemove(ctx context.Context, key string) error {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Println(err)
		return nil
	}
	defer store.Close(ctx)

	if err := store.Delete(ctx, key); err != nil {
		if se, ok := errors.AsStoreError(err); ok && se.Code() == errors.ErrorCodeKeyNotFound {
			fmt.Println("Key not found")
			os.Exit(1)
		}
		fmt.Println(err)
		return nil
	}
	return nil
}
