package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mpq/internal/formatter"
	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/services"
	"github.com/desertthunder/mpq/internal/shared"
	"github.com/desertthunder/mpq/internal/tasks"
)

func parseID(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", shared.ErrInvalidArgument, s)
	}
	return uint32(id), nil
}

func parseIDs(args []string) ([]uint32, error) {
	ids := make([]uint32, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePosition accepts negative values, which count from the playing entry.
func parsePosition(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: position", shared.ErrMissingArgument)
	}
	pos, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad position %q", shared.ErrInvalidArgument, s)
	}
	return pos, nil
}

// optionalSpan parses s, where an empty string means the whole queue.
func optionalSpan(s string) (models.Span, error) {
	if s == "" {
		return models.Span{}, nil
	}
	return tasks.ParseSpan(s)
}

// report prints the result of a queue command: JSON when asked, otherwise a status line.
func (r *Runner) report(cmd *cli.Command, st models.QueueStatus, err error) error {
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(st, cmd.Bool("pretty"))
	}
	return r.printStatus(st)
}

func (r *Runner) printStatus(st models.QueueStatus) error {
	current := "none"
	if st.CurrentID != 0 {
		current = fmt.Sprintf("#%d at %d", st.CurrentID, st.Current)
	}
	return r.writePlain("version %d (epoch %d) • %d entries • current %s\n", st.Version, st.Epoch, st.Length, current)
}

func (r *Runner) printItems(cmd *cli.Command, st models.QueueStatus, items []models.QueueItem) error {
	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}
	data, err := formatter.ExportToText(&formatter.QueueExport{Status: st, Items: items})
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// QueueAdd adds a track, a directory of the index or, with no URI, the whole index.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	tags, err := tasks.ParseTags(cmd.String("tags"))
	if err != nil {
		return err
	}

	req := models.AddRequest{
		URI:    cmd.StringArg("uri"),
		Tags:   tags,
		Window: models.Window{Offset: int(cmd.Int("offset")), Limit: int(cmd.Int("limit"))},
	}
	resp, err := r.client(cmd).Add(ctx, req)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Added %d entries\n", len(resp.IDs))
	return r.printStatus(resp.Status)
}

// QueueAddID adds a single track, optionally placing it at a position.
func (r *Runner) QueueAddID(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("uri")
	if uri == "" {
		return fmt.Errorf("%w: uri", shared.ErrMissingArgument)
	}
	tags, err := tasks.ParseTags(cmd.String("tags"))
	if err != nil {
		return err
	}

	req := models.AddRequest{URI: uri, Tags: tags, Window: models.Window{Limit: 1}}
	if s := cmd.StringArg("position"); s != "" {
		pos, err := parsePosition(s)
		if err != nil {
			return err
		}
		req.Position = &pos
	}

	resp, err := r.client(cmd).Add(ctx, req)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(resp, cmd.Bool("pretty"))
	}
	for _, id := range resp.IDs {
		r.writePlain("Id: %d\n", id)
	}
	return nil
}

func (r *Runner) QueueDelete(ctx context.Context, cmd *cli.Command) error {
	span, err := tasks.ParseSpan(cmd.StringArg("span"))
	if err != nil {
		return err
	}
	st, err := r.client(cmd).Delete(ctx, span)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueDeleteID(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	st, err := r.client(cmd).DeleteID(ctx, id)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueMove(ctx context.Context, cmd *cli.Command) error {
	span, err := tasks.ParseSpan(cmd.StringArg("span"))
	if err != nil {
		return err
	}
	to, err := parsePosition(cmd.StringArg("to"))
	if err != nil {
		return err
	}
	st, err := r.client(cmd).Move(ctx, models.MoveRequest{Span: span, To: to})
	return r.report(cmd, st, err)
}

func (r *Runner) QueueMoveID(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	to, err := parsePosition(cmd.StringArg("to"))
	if err != nil {
		return err
	}
	st, err := r.client(cmd).MoveID(ctx, id, to)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueSwap(ctx context.Context, cmd *cli.Command) error {
	a, err := parsePosition(cmd.StringArg("a"))
	if err != nil {
		return err
	}
	b, err := parsePosition(cmd.StringArg("b"))
	if err != nil {
		return err
	}
	st, err := r.client(cmd).Swap(ctx, a, b)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueSwapID(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs([]string{cmd.StringArg("a"), cmd.StringArg("b")})
	if err != nil {
		return err
	}
	st, err := r.client(cmd).SwapID(ctx, ids[0], ids[1])
	return r.report(cmd, st, err)
}

// QueuePrio sets the priority of every entry in one or more spans: prio PRIORITY SPAN...
func (r *Runner) QueuePrio(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("%w: priority and at least one span", shared.ErrMissingArgument)
	}
	priority, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("%w: bad priority %q", shared.ErrInvalidArgument, cmd.Args().First())
	}

	var spans []models.Span
	for _, s := range cmd.Args().Tail() {
		span, err := tasks.ParseSpan(s)
		if err != nil {
			return err
		}
		spans = append(spans, span)
	}
	st, err := r.client(cmd).Prio(ctx, priority, spans)
	return r.report(cmd, st, err)
}

// QueuePrioID sets the priority of one or more entries by id: prioid PRIORITY ID...
func (r *Runner) QueuePrioID(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("%w: priority and at least one id", shared.ErrMissingArgument)
	}
	priority, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("%w: bad priority %q", shared.ErrInvalidArgument, cmd.Args().First())
	}
	ids, err := parseIDs(cmd.Args().Tail())
	if err != nil {
		return err
	}
	st, err := r.client(cmd).PrioID(ctx, priority, ids)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueRangeID(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	rng := cmd.StringArg("range")
	if _, _, err := tasks.ParseTimeRange(rng); err != nil {
		return err
	}
	st, err := r.client(cmd).RangeID(ctx, id, rng)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueShuffle(ctx context.Context, cmd *cli.Command) error {
	span, err := optionalSpan(cmd.StringArg("span"))
	if err != nil {
		return err
	}
	st, err := r.client(cmd).Shuffle(ctx, span)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueClear(ctx context.Context, cmd *cli.Command) error {
	st, err := r.client(cmd).Clear(ctx)
	return r.report(cmd, st, err)
}

// QueueCurrent moves the player cursor; id 0 clears it.
func (r *Runner) QueueCurrent(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	st, err := r.client(cmd).SetCurrent(ctx, id)
	return r.report(cmd, st, err)
}

func (r *Runner) QueueStatus(ctx context.Context, cmd *cli.Command) error {
	st, err := r.client(cmd).Status(ctx)
	return r.report(cmd, st, err)
}

// QueueInfo lists entries, all of them or those in a span, or a single entry with --id.
func (r *Runner) QueueInfo(ctx context.Context, cmd *cli.Command) error {
	client := r.client(cmd)

	if s := cmd.String("id"); s != "" {
		id, err := parseID(s)
		if err != nil {
			return err
		}
		item, err := client.ByID(ctx, id)
		if err != nil {
			return err
		}
		return r.printItems(cmd, models.QueueStatus{}, []models.QueueItem{item})
	}

	span, err := optionalSpan(cmd.StringArg("span"))
	if err != nil {
		return err
	}
	st, err := client.Status(ctx)
	if err != nil {
		return err
	}
	items, err := client.Info(ctx, span.Start, span.End)
	if err != nil {
		return err
	}
	return r.printItems(cmd, st, items)
}

// QueueFind lists entries whose tag matches a value: exactly, or as a case-folded substring with --fold.
func (r *Runner) QueueFind(ctx context.Context, cmd *cli.Command) error {
	filter := models.TagFilter{
		Tag:   strings.ToLower(cmd.StringArg("tag")),
		Value: cmd.StringArg("value"),
		Fold:  cmd.Bool("fold"),
	}
	if filter.Tag == "" || filter.Value == "" {
		return fmt.Errorf("%w: tag and value", shared.ErrMissingArgument)
	}
	if err := filter.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	client := r.client(cmd)
	items, err := client.Find(ctx, filter)
	if err != nil {
		return err
	}
	if len(items) == 0 && !cmd.Bool("json") {
		return r.writePlain("no entries match %s %q\n", filter.Tag, filter.Value)
	}
	return r.printItems(cmd, models.QueueStatus{}, items)
}

// QueueChanges lists entries changed at or after a version.
func (r *Runner) QueueChanges(ctx context.Context, cmd *cli.Command) error {
	s := cmd.StringArg("version")
	if s == "" {
		return fmt.Errorf("%w: version", shared.ErrMissingArgument)
	}
	version, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: bad version %q", shared.ErrInvalidArgument, s)
	}
	span, err := optionalSpan(cmd.StringArg("span"))
	if err != nil {
		return err
	}

	client := r.client(cmd)
	since := models.Baseline{Version: uint32(version)}
	if cmd.IsSet("epoch") {
		since.Epoch = uint32(cmd.Int("epoch"))
	} else {
		st, err := client.Status(ctx)
		if err != nil {
			return err
		}
		since.Epoch = st.Epoch
	}

	cs, err := client.Changes(ctx, since, span.Start, span.End, cmd.Bool("ids"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(cs, cmd.Bool("pretty"))
	}

	if cs.Full {
		r.writePlain("full listing (version %d is no longer reachable)\n", version)
	}
	if cmd.Bool("ids") {
		for _, slot := range cs.Slots {
			r.writePlain("%3d. [%d]\n", slot.Position, slot.ID)
		}
		return r.printStatus(cs.Status)
	}
	return r.printItems(cmd, cs.Status, cs.Items)
}

func (r *Runner) QueueSave(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	st, err := r.client(cmd).Save(ctx, name)
	if err != nil {
		return err
	}
	if !cmd.Bool("json") {
		r.writePlain("✓ Saved %d entries as %q\n", st.Length, snapshotLabel(name))
	}
	return r.report(cmd, st, nil)
}

func (r *Runner) QueueLoad(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	st, err := r.client(cmd).Load(ctx, name)
	if err != nil {
		return err
	}
	if !cmd.Bool("json") {
		r.writePlain("✓ Loaded %d entries from %q\n", st.Length, snapshotLabel(name))
	}
	return r.report(cmd, st, nil)
}

func snapshotLabel(name string) string {
	if name == "" {
		return "state"
	}
	return name
}

func (r *Runner) QueueSnapshots(ctx context.Context, cmd *cli.Command) error {
	snapshots, err := r.client(cmd).Snapshots(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(snapshots, cmd.Bool("pretty"))
	}

	if len(snapshots) == 0 {
		return r.writePlain("No saved queues\n")
	}
	for _, s := range snapshots {
		r.writePlain("%-24s %5d entries  %s\n", s.Name, s.Entries, s.SavedAt.Local().Format(time.DateTime))
	}
	return nil
}

func (r *Runner) QueueRemoveSnapshot(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if err := r.client(cmd).DeleteSnapshot(ctx, name); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %q\n", name)
}

// QueueExport writes the queue as text, CSV, Markdown or M3U. An output of "-" writes to stdout.
func (r *Runner) QueueExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	client := r.client(cmd)
	st, err := client.Status(ctx)
	if err != nil {
		return err
	}
	items, err := client.Info(ctx, 0, nil)
	if err != nil {
		return err
	}
	export := &formatter.QueueExport{Name: cmd.String("name"), Status: st, Items: items}

	if cmd.String("output") == "-" {
		data, err := formatter.Render(f, export)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	path, err := formatter.WriteExport(f, export, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("queue exported", "format", f, "path", path, "entries", len(items))
	return r.writePlain("✓ Exported %d entries to %s\n", len(items), path)
}

// QueueFollow prints the queue status every time it changes, until interrupted.
func (r *Runner) QueueFollow(ctx context.Context, cmd *cli.Command) error {
	client := r.client(cmd)
	timeout := cmd.Duration("timeout")
	list := cmd.Bool("list")

	var mirror services.Mirror
	for {
		changed, err := mirror.Sync(ctx, client)
		if err != nil {
			return err
		}
		if changed {
			if list {
				if err := r.printItems(cmd, mirror.Status(), mirror.Items()); err != nil {
					return err
				}
			} else if err := r.printStatus(mirror.Status()); err != nil {
				return err
			}
		}

		if _, err := client.Idle(ctx, mirror.Status(), timeout); err != nil {
			return err
		}
	}
}
