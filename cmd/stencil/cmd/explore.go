package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/explorer"
	"github.com/tormodhaugland/stencil/internal/state"
	"github.com/tormodhaugland/stencil/internal/template"
	"github.com/tormodhaugland/stencil/internal/tui"
	"github.com/tormodhaugland/stencil/internal/vars"
	"github.com/tormodhaugland/stencil/internal/watch"
)

var (
	exploreContext []string
	exploreSet     []string
	exploreWatch   bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore <dir>",
	Short: "Browse a template tree interactively",
	Long: `Opens the terminal explorer on a template directory. Selecting a file
shows its rendered output. Expanded directories and the selection are
remembered per directory and restored the next time it is opened.

With --watch the tree and the templates are reloaded whenever files under
the directory change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		renderCtx, err := vars.Build(exploreContext, exploreSet)
		if err != nil {
			return fmt.Errorf("failed to build context: %w", err)
		}

		handle := explorer.NewHandle(newScanner(), logger)
		defer handle.Close()
		if out := <-handle.Open(ctx, args[0]); out.Err != nil {
			return fmt.Errorf("failed to scan %s: %w", args[0], out.Err)
		}
		root := handle.Path()

		holder := template.NewHolder(templateOptions()...)
		defer holder.Close()
		if out := <-holder.Load(ctx, root); out.Err != nil {
			// the tree is still browsable; previews report the failure
			logger.Warn("templates not loaded", "root", root, "error", out.Err)
		}

		store, err := state.Open(cfg.StatePath)
		if err != nil {
			return fmt.Errorf("failed to open state: %w", err)
		}
		defer store.Close()

		if saved, ok, err := store.Load(ctx, root); err != nil {
			logger.Warn("cannot restore explorer state", "root", root, "error", err)
		} else if ok {
			_ = handle.Update(func(e *explorer.Explorer) error {
				e.Restore(saved)
				return nil
			})
		}

		opts := tui.Options{
			Handle:        handle,
			Holder:        holder,
			Vars:          renderCtx,
			RenderOptions: renderOptions(false, false),
		}

		if exploreWatch {
			w, err := watch.New(root,
				watch.WithDebounce(cfg.Watch.Debounce.Duration),
				watch.WithExcludes(cfg.ScanExcludes()),
				watch.WithLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			defer w.Close()

			changes := make(chan []string, 1)
			go func() {
				defer close(changes)
				_ = w.Run(ctx, func(paths []string) {
					select {
					case changes <- paths:
					case <-ctx.Done():
					}
				})
			}()
			opts.Changes = changes
		}

		runErr := tui.Run(opts)

		var st explorer.State
		if err := handle.View(func(e *explorer.Explorer) { st = e.State(root) }); err == nil {
			if err := store.Save(context.WithoutCancel(ctx), st); err != nil {
				logger.Warn("cannot save explorer state", "root", root, "error", err)
			}
		}
		return runErr
	},
}

func init() {
	addContextFlags(exploreCmd, &exploreContext, &exploreSet)
	exploreCmd.Flags().BoolVarP(&exploreWatch, "watch", "w", false, "reload when files change")
	rootCmd.AddCommand(exploreCmd)
}
