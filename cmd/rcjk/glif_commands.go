package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rcjk/internal/api"
	"rcjk/internal/glif"
	"rcjk/internal/store"
	"rcjk/internal/sweep"
)

// glifFlags are shared by commands addressing one glif.
type glifFlags struct {
	kind   string
	fontID int64
}

func (f *glifFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "", "Glif kind: ae, dc, or cg")
	cmd.Flags().Int64Var(&f.fontID, "font", 0, "Font id")
	_ = cmd.MarkFlagRequired("kind")
}

// ref accepts a numeric id or a glif name; names require --font.
func (f *glifFlags) ref(value string) (glif.Kind, api.Ref, error) {
	kind, err := parseGlifKind(f.kind)
	if err != nil {
		return "", api.Ref{}, err
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 {
		return kind, api.Ref{FontID: f.fontID, ID: id}, nil
	}
	if f.fontID == 0 {
		return "", api.Ref{}, fmt.Errorf("--font is required to address %q by name", value)
	}
	return kind, api.Ref{FontID: f.fontID, Name: value}, nil
}

func newGlifCommand(ctx *commandContext) *cobra.Command {
	glifCmd := &cobra.Command{
		Use:   "glif",
		Short: "Create, inspect, and delete glifs",
	}
	glifCmd.AddCommand(newGlifPutCommand(ctx))
	glifCmd.AddCommand(newGlifShowCommand(ctx))
	glifCmd.AddCommand(newGlifListCommand(ctx))
	glifCmd.AddCommand(newGlifDeleteCommand(ctx))
	return glifCmd
}

func newGlifPutCommand(ctx *commandContext) *cobra.Command {
	var (
		flags      glifFlags
		ignoreLock bool
	)
	cmd := &cobra.Command{
		Use:   "put FILE",
		Short: "Create or update the glif described by a .glif file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseGlifKind(flags.kind)
			if err != nil {
				return err
			}
			if flags.fontID == 0 {
				return fmt.Errorf("--font is required")
			}
			data, err := readSource(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				saved, created, err := api.NewGlifService(st).Put(cmd.Context(), kind, flags.fontID, data, user, api.EditOptions{IgnoreLock: ignoreLock})
				if err != nil {
					return err
				}
				verb := "Updated"
				if created {
					verb = "Created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (id %d, status %s)\n", verb, kind.Label(), saved.Name, saved.ID, saved.Status)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&ignoreLock, "ignore-lock", false, "Update without holding the lock")
	return cmd
}

func newGlifShowCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  glifFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "show ID|NAME",
		Short: "Show a glif with its layers and component graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ref, err := flags.ref(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				described, err := api.NewGlifService(st).Describe(cmd.Context(), kind, ref)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, described)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s (id %d)\n", kind.Label(), described.Name, described.ID)
				fmt.Fprintf(out, "  filename:  %s\n", described.Filename)
				if described.UnicodeHex != "" {
					fmt.Fprintf(out, "  unicode:   %s\n", described.UnicodeHex)
				}
				fmt.Fprintf(out, "  status:    %s\n", described.Status)
				fmt.Fprintf(out, "  locked:    %s\n", yesNo(described.IsLocked))
				for rel, nodes := range described.MadeOf {
					fmt.Fprintf(out, "  %s: %d\n", rel, len(nodes))
				}
				for usedBy, nodes := range described.UsedBy {
					fmt.Fprintf(out, "  used by %s: %d\n", usedBy.Label(), len(nodes))
				}
				for _, l := range described.Layers {
					fmt.Fprintf(out, "  layer %s/%s (id %d)\n", l.GroupName, l.Name, l.ID)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newGlifListCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  glifFlags
		filter store.GlifFilter
		status string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the glifs of a font",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseGlifKind(flags.kind)
			if err != nil {
				return err
			}
			if flags.fontID == 0 {
				return fmt.Errorf("--font is required")
			}
			if status != "" {
				parsed, err := glif.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = parsed
			}
			return ctx.withStore(func(st *store.Store) error {
				glifs, err := api.NewGlifService(st).List(cmd.Context(), kind, flags.fontID, filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, glifs)
				}
				rows := make([][]string, 0, len(glifs))
				for _, g := range glifs {
					rows = append(rows, []string{strconv.FormatInt(g.ID, 10), g.Name, g.UnicodeHex, string(g.Status), yesNo(g.IsLocked)})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"ID", "Name", "Unicode", "Status", "Locked"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "Only glifs with this status")
	cmd.Flags().BoolVar(&filter.LockedOnly, "locked", false, "Only locked glifs")
	cmd.Flags().StringVar(&filter.NamePrefix, "prefix", "", "Only names starting with prefix")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newGlifDeleteCommand(ctx *commandContext) *cobra.Command {
	var (
		flags      glifFlags
		ignoreLock bool
	)
	cmd := &cobra.Command{
		Use:   "delete ID|NAME",
		Short: "Delete a glif and record a tombstone for the next export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ref, err := flags.ref(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				tombstone, err := api.NewGlifService(st).Delete(cmd.Context(), kind, ref, user, api.EditOptions{IgnoreLock: ignoreLock})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s (%s)\n", kind.Label(), tombstone.Name, tombstone.Filepath)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&ignoreLock, "ignore-lock", false, "Delete without holding the lock")
	return cmd
}

func newLayerCommand(ctx *commandContext) *cobra.Command {
	layerCmd := &cobra.Command{
		Use:   "layer",
		Short: "Manage atomic element and character glyph layers",
	}

	var (
		putFlags   glifFlags
		group      string
		ignoreLock bool
	)
	put := &cobra.Command{
		Use:   "put PARENT FILE",
		Short: "Create or replace a layer of the parent glif",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ref, err := putFlags.ref(args[0])
			if err != nil {
				return err
			}
			data, err := readSource(args[1])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				layer, err := api.NewGlifService(st).PutLayer(cmd.Context(), kind, ref, group, data, user, api.EditOptions{IgnoreLock: ignoreLock})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved layer %s/%s (id %d)\n", layer.GroupName, layer.Name, layer.ID)
				return nil
			})
		},
	}
	putFlags.register(put)
	put.Flags().StringVar(&group, "group", "", "Layer group name")
	put.Flags().BoolVar(&ignoreLock, "ignore-lock", false, "Save without holding the parent lock")
	_ = put.MarkFlagRequired("group")

	var (
		deleteKind       string
		deleteIgnoreLock bool
	)
	del := &cobra.Command{
		Use:   "delete LAYER_ID",
		Short: "Delete a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentKind, err := parseGlifKind(deleteKind)
			if err != nil {
				return err
			}
			layerKind, ok := parentKind.LayerKind()
			if !ok {
				return fmt.Errorf("%s has no layers", parentKind.Label())
			}
			id, err := parseID(args[0], "layer")
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				tombstone, err := api.NewGlifService(st).DeleteLayer(cmd.Context(), layerKind, id, user, api.EditOptions{IgnoreLock: deleteIgnoreLock})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted layer %s\n", tombstone.Filepath)
				return nil
			})
		},
	}
	del.Flags().StringVarP(&deleteKind, "kind", "k", "", "Parent glif kind: ae or cg")
	del.Flags().BoolVar(&deleteIgnoreLock, "ignore-lock", false, "Delete without holding the parent lock")
	_ = del.MarkFlagRequired("kind")

	layerCmd.AddCommand(put, del)
	return layerCmd
}

func newLockCommand(ctx *commandContext) *cobra.Command {
	var flags glifFlags
	cmd := &cobra.Command{
		Use:   "lock ID|NAME",
		Short: "Take the editing lock on a glif",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ref, err := flags.ref(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				locked, err := api.NewGlifService(st).Lock(cmd.Context(), kind, ref, user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Locked %s %s for %s\n", kind.Label(), locked.Name, user.Username)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	var flags glifFlags
	cmd := &cobra.Command{
		Use:   "unlock ID|NAME",
		Short: "Release your editing lock on a glif",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ref, err := flags.ref(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				user, err := ctx.currentUser(cmd.Context(), st)
				if err != nil {
					return err
				}
				unlocked, err := api.NewGlifService(st).Unlock(cmd.Context(), kind, ref, user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %s %s\n", kind.Label(), unlocked.Name)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newLocksCommand(ctx *commandContext) *cobra.Command {
	locksCmd := &cobra.Command{
		Use:   "locks",
		Short: "Inspect and release glif locks",
	}
	locksCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Force-release locks idle longer than the configured window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				report := sweep.New(st, cfg.StaleLockWindow(), logger).Run(cmd.Context())
				out := cmd.OutOrStdout()
				for _, g := range report.Groups {
					fmt.Fprintf(out, "font %d %s: released %d\n", g.FontID, g.Kind.Label(), len(g.IDs))
				}
				fmt.Fprintf(out, "Released %d locks idle since %s\n", report.Released(), report.Cutoff.Local().Format("2006-01-02 15:04"))
				return report.Err()
			})
		},
	})
	return locksCmd
}
