// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// clientFlags are shared by every command that talks to a running server.
func clientFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server base URL, defaults to server.host and server.port",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}, extra...)
}

func args(names ...string) []cli.Argument {
	out := make([]cli.Argument, 0, len(names))
	for _, name := range names {
		out = append(out, &cli.StringArg{Name: name})
	}
	return out
}

func tagsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "tags",
		Aliases: []string{"t"},
		Usage:   `JSON tag overrides, e.g. '{"title": "Live"}'`,
	}
}

// queueCommand handles queue operations against a running server
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Aliases: []string{"q"},
		Usage:   "Edit and inspect the play queue",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a track, an indexed directory, or the whole index",
				ArgsUsage: "[uri]",
				Arguments: args("uri"),
				Flags: clientFlags(
					tagsFlag(),
					&cli.IntFlag{Name: "offset", Usage: "Skip this many matches of a selector"},
					&cli.IntFlag{Name: "limit", Usage: "Add at most this many matches of a selector"},
				),
				Action: r.QueueAdd,
			},
			{
				Name:      "addid",
				Usage:     "Add a single track and print its id; a negative position, given after --, is relative to the current entry",
				ArgsUsage: "<uri> [position]",
				Arguments: args("uri", "position"),
				Flags:     clientFlags(tagsFlag()),
				Action:    r.QueueAddID,
			},
			{
				Name:      "delete",
				Usage:     "Delete entries by position",
				ArgsUsage: "<pos|start:end>",
				Arguments: args("span"),
				Flags:     clientFlags(),
				Action:    r.QueueDelete,
			},
			{
				Name:      "deleteid",
				Usage:     "Delete an entry by id",
				ArgsUsage: "<id>",
				Arguments: args("id"),
				Flags:     clientFlags(),
				Action:    r.QueueDeleteID,
			},
			{
				Name:      "move",
				Usage:     "Move entries to a position; a negative position, given after --, is relative to the current entry",
				ArgsUsage: "<pos|start:end> <to>",
				Arguments: args("span", "to"),
				Flags:     clientFlags(),
				Action:    r.QueueMove,
			},
			{
				Name:      "moveid",
				Usage:     "Move an entry by id",
				ArgsUsage: "<id> <to>",
				Arguments: args("id", "to"),
				Flags:     clientFlags(),
				Action:    r.QueueMoveID,
			},
			{
				Name:      "swap",
				Usage:     "Swap two positions",
				ArgsUsage: "<a> <b>",
				Arguments: args("a", "b"),
				Flags:     clientFlags(),
				Action:    r.QueueSwap,
			},
			{
				Name:      "swapid",
				Usage:     "Swap two entries by id",
				ArgsUsage: "<a> <b>",
				Arguments: args("a", "b"),
				Flags:     clientFlags(),
				Action:    r.QueueSwapID,
			},
			{
				Name:      "prio",
				Usage:     "Set the priority (0-255) of entries in one or more spans",
				ArgsUsage: "<priority> <pos|start:end>...",
				Flags:     clientFlags(),
				Action:    r.QueuePrio,
			},
			{
				Name:      "prioid",
				Usage:     "Set the priority (0-255) of entries by id",
				ArgsUsage: "<priority> <id>...",
				Flags:     clientFlags(),
				Action:    r.QueuePrioID,
			},
			{
				Name:      "rangeid",
				Usage:     "Set the play range of an entry in seconds, e.g. 10.5:60 or : to clear",
				ArgsUsage: "<id> <start:end>",
				Arguments: args("id", "range"),
				Flags:     clientFlags(),
				Action:    r.QueueRangeID,
			},
			{
				Name:      "shuffle",
				Usage:     "Shuffle the queue or a span of it",
				ArgsUsage: "[start:end]",
				Arguments: args("span"),
				Flags:     clientFlags(),
				Action:    r.QueueShuffle,
			},
			{
				Name:   "clear",
				Usage:  "Remove every entry",
				Flags:  clientFlags(),
				Action: r.QueueClear,
			},
			{
				Name:      "current",
				Usage:     "Set the current entry by id, 0 clears it",
				ArgsUsage: "<id>",
				Arguments: args("id"),
				Flags:     clientFlags(),
				Action:    r.QueueCurrent,
			},
			{
				Name:   "status",
				Usage:  "Show version, epoch, length and current entry",
				Flags:  clientFlags(),
				Action: r.QueueStatus,
			},
			{
				Name:      "info",
				Usage:     "List entries",
				ArgsUsage: "[pos|start:end]",
				Arguments: args("span"),
				Flags: clientFlags(
					&cli.StringFlag{Name: "id", Usage: "Show a single entry by id"},
				),
				Action: r.QueueInfo,
			},
			{
				Name:      "find",
				Usage:     "List entries whose tag matches a value",
				ArgsUsage: "<any|uri|title|artist|album|genre|year|track> <value>",
				Arguments: args("tag", "value"),
				Flags: clientFlags(
					&cli.BoolFlag{Name: "fold", Aliases: []string{"i"}, Usage: "Case-folded substring match"},
				),
				Action: r.QueueFind,
			},
			{
				Name:      "changes",
				Usage:     "List entries changed at or after a version",
				ArgsUsage: "<version> [start:end]",
				Arguments: args("version", "span"),
				Flags: clientFlags(
					&cli.BoolFlag{Name: "ids", Usage: "Only positions and ids"},
					&cli.IntFlag{Name: "epoch", Usage: "Epoch the version belongs to (default: the server's current epoch)"},
				),
				Action: r.QueueChanges,
			},
			{
				Name:      "save",
				Usage:     "Save the queue under a name, or as the server state when omitted",
				ArgsUsage: "[name]",
				Arguments: args("name"),
				Flags:     clientFlags(),
				Action:    r.QueueSave,
			},
			{
				Name:      "load",
				Usage:     "Replace the queue with a saved one",
				ArgsUsage: "[name]",
				Arguments: args("name"),
				Flags:     clientFlags(),
				Action:    r.QueueLoad,
			},
			{
				Name:   "snapshots",
				Usage:  "List saved queues",
				Flags:  clientFlags(),
				Action: r.QueueSnapshots,
			},
			{
				Name:      "rmsnapshot",
				Usage:     "Delete a saved queue",
				ArgsUsage: "<name>",
				Arguments: args("name"),
				Flags:     clientFlags(),
				Action:    r.QueueRemoveSnapshot,
			},
			{
				Name:  "export",
				Usage: "Export the queue to a file",
				Flags: clientFlags(
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "text, csv, markdown or m3u",
						Value:   "m3u",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path, - for stdout",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Title of the export and default file name",
					},
				),
				Action: r.QueueExport,
			},
			{
				Name:  "follow",
				Usage: "Print the queue every time it changes",
				Flags: clientFlags(
					&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "Print the full listing instead of the status"},
					&cli.DurationFlag{Name: "timeout", Usage: "Long poll timeout", Value: 30 * time.Second},
				),
				Action: r.QueueFollow,
			},
		},
	}
}
