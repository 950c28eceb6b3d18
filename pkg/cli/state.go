package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/relwatch/pkg/cli/config"
	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	infraconfig "github.com/m-mizutani/relwatch/pkg/infra/config"
	"github.com/m-mizutani/relwatch/pkg/infra/persistence"
)

func cmdState() *cli.Command {
	var srcCfg config.Source

	return &cli.Command{
		Name:  "state",
		Usage: "Inspect and maintain the persisted release state",
		Flags: srcCfg.Flags(),
		Commands: []*cli.Command{
			cmdStateList(&srcCfg),
			cmdStateGet(&srcCfg),
			cmdStateDelete(&srcCfg),
			cmdStateStats(&srcCfg),
		},
	}
}

// openStore builds the configured state store for maintenance commands.
func openStore(ctx context.Context, src *config.Source) (interfaces.MaintainableStore, func(), error) {
	cfg, err := infraconfig.Load(ctx, src.Path)
	if err != nil {
		return nil, nil, err
	}

	persistConf, err := infraconfig.ResolveEnv(cfg.Persistence.Config, false)
	if err != nil {
		return nil, nil, err
	}
	cfg.Persistence.Config = persistConf

	store, err := persistence.New(ctx, cfg.Persistence)
	if err != nil {
		return nil, nil, err
	}

	m, ok := store.(interfaces.MaintainableStore)
	if !ok {
		_ = store.Close()
		return nil, nil, goerr.New("persistence backend does not support state maintenance",
			goerr.V("type", cfg.Persistence.Type))
	}

	return m, func() { _ = m.Close() }, nil
}

func cmdStateList(src *config.Source) *cli.Command {
	var prefix string

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List tracked entries and their versions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "prefix",
				Aliases:     []string{"p"},
				Usage:       "Filter entries by key prefix (e.g. github, pypi)",
				Destination: &prefix,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			store, closeStore, err := openStore(ctx, src)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := store.ListKeys(ctx, prefix)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no tracked entries found")
				return nil
			}

			bold := color.New(color.Bold)
			green := color.New(color.FgGreen)
			for i, entry := range entries {
				key, tag, ok := strings.Cut(entry, ":")
				if !ok {
					fmt.Printf("%4d. %s (invalid format)\n", i+1, entry)
					continue
				}
				fmt.Printf("%4d. ", i+1)
				bold.Printf("%-50s", key)
				fmt.Print(" -> ")
				green.Println(tag)
			}
			fmt.Printf("\ntotal: %d\n", len(entries))
			return nil
		},
	}
}

func cmdStateGet(src *config.Source) *cli.Command {
	var (
		repoID     string
		watcherKey string
	)

	return &cli.Command{
		Name:  "get",
		Usage: "Show the persisted version of one entry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "repo",
				Aliases:     []string{"r"},
				Usage:       "Repository identifier",
				Required:    true,
				Destination: &repoID,
			},
			&cli.StringFlag{
				Name:        "watcher",
				Aliases:     []string{"w"},
				Usage:       "Watcher key the entry is tracked under",
				Required:    true,
				Destination: &watcherKey,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			store, closeStore, err := openStore(ctx, src)
			if err != nil {
				return err
			}
			defer closeStore()

			key := model.StateKey(watcherKey, repoID)
			tag, found, err := store.GetLastTag(ctx, key)
			if err != nil {
				return err
			}
			if !found {
				color.Red("entry %q not found", key)
				return nil
			}
			color.Green("%s -> %s", key, tag)
			return nil
		},
	}
}

func cmdStateDelete(src *config.Source) *cli.Command {
	var (
		prefix string
		force  bool
	)

	return &cli.Command{
		Name:    "delete",
		Aliases: []string{"rm"},
		Usage:   "Delete tracked entries (all, or those matching a prefix)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "prefix",
				Aliases:     []string{"p"},
				Usage:       "Only delete entries with this key prefix",
				Destination: &prefix,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "Skip the confirmation prompt",
				Destination: &force,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			store, closeStore, err := openStore(ctx, src)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := store.ListKeys(ctx, prefix)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no matching entries found")
				return nil
			}

			const preview = 10
			fmt.Printf("entries to be deleted (%d total):\n", len(entries))
			for i, entry := range entries {
				if i >= preview {
					fmt.Printf("  ... and %d more\n", len(entries)-preview)
					break
				}
				fmt.Printf("  %d. %s\n", i+1, entry)
			}

			if !force && !confirm(fmt.Sprintf("delete %d entries?", len(entries))) {
				color.Yellow("deletion cancelled")
				return nil
			}

			deleted, err := store.DeleteKeys(ctx, prefix)
			if err != nil {
				return err
			}
			color.Green("deleted %d entries", deleted)
			return nil
		},
	}
}

func cmdStateStats(src *config.Source) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show tracked entry counts per watcher",
		Action: func(ctx context.Context, c *cli.Command) error {
			store, closeStore, err := openStore(ctx, src)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := store.ListKeys(ctx, "")
			if err != nil {
				return err
			}

			// State keys are "<watcherKey>_<repoID>".
			counts := map[string]int{}
			for _, entry := range entries {
				key, _, _ := strings.Cut(entry, ":")
				watcherKey, _, ok := strings.Cut(key, "_")
				if !ok {
					watcherKey = "unknown"
				}
				counts[watcherKey]++
			}

			fmt.Printf("total entries: %d\n", len(entries))
			if len(counts) == 0 {
				return nil
			}

			watchers := make([]string, 0, len(counts))
			for w := range counts {
				watchers = append(watchers, w)
			}
			sort.Strings(watchers)

			fmt.Println("\nby watcher:")
			for _, w := range watchers {
				fmt.Printf("  %-20s %d\n", w, counts[w])
			}
			return nil
		},
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s (yes/no): ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "yes" || answer == "y"
}
