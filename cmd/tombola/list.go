package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/draw"
	"github.com/jscyril/audio_tombola/internal/logging"
	"github.com/jscyril/audio_tombola/internal/media"
	"github.com/jscyril/audio_tombola/internal/session"
)

var (
	listDraw bool
	listSeed uint64
)

var listCmd = &cobra.Command{
	Use:   "list [files or directories...]",
	Short: "Print the numbers the given clips would get",
	Long: `Load clips the same way the player does and print the numbered list
without playing anything. With --draw, also print the order of a full
silent draw; --seed makes that order reproducible.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listDraw, "draw", false, "simulate a full draw and print the order")
	listCmd.Flags().Uint64Var(&listSeed, "seed", 0, "random seed for --draw (0 picks one)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, closer, err := openLogger(cmd.Context())
	if err != nil {
		return err
	}
	defer closer.Close()

	var opts []session.Option
	if listSeed != 0 {
		opts = append(opts, session.WithRandomSource(draw.NewSeededSource(listSeed)))
	}

	manager := media.NewManager(cfg.ImportWorkers, logging.FromContext(ctx))
	sess, err := newSession(ctx, manager, nil, nil, args, opts...)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	defer sess.ResetAll()

	out := cmd.OutOrStdout()
	entries := sess.Registry().Entries()
	fmt.Fprintf(out, "%d/%d clips\n", len(entries), sess.Registry().Capacity())
	for _, e := range entries {
		fmt.Fprintf(out, "%3d. %s%s\n", e.ID, e.DisplayName, formatLength(manager, e.Ref))
	}

	if !listDraw || len(entries) == 0 {
		return nil
	}

	if err := sess.StartDraw(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Draw order:")
	for {
		result, ok, err := sess.Draw()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Fprintf(out, "%3d. %s\n", result.Number, result.Entry.DisplayName)
	}
	return nil
}

// formatLength renders a clip's duration when it could be probed
func formatLength(manager *media.Manager, ref api.MediaRef) string {
	item, ok := manager.Get(ref)
	if !ok || item.Duration <= 0 {
		return ""
	}
	d := item.Duration.Round(time.Second)
	return fmt.Sprintf(" (%02d:%02d)", d/time.Minute, (d%time.Minute)/time.Second)
}
