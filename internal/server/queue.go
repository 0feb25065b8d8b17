package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/desertthunder/mpq/internal/metrics"
	"github.com/desertthunder/mpq/internal/models"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/repositories"
	"github.com/desertthunder/mpq/internal/shared"
	"github.com/desertthunder/mpq/internal/tasks"
)

const (
	defaultIdleTimeout = 30 * time.Second
	maxIdleTimeout     = 5 * time.Minute
)

// SnapshotCatalog lists and deletes saved queues.
type SnapshotCatalog interface {
	List(ctx context.Context) ([]repositories.SnapshotInfo, error)
	Delete(ctx context.Context, name string) error
}

// QueueHandler serves the queue protocol over JSON.
type QueueHandler struct {
	editor  *tasks.QueueEditor
	keeper  *tasks.StateKeeper
	catalog SnapshotCatalog
	idle    *Broadcaster
	logger  *log.Logger
}

func NewQueueHandler(editor *tasks.QueueEditor, keeper *tasks.StateKeeper, catalog SnapshotCatalog, idle *Broadcaster, logger *log.Logger) *QueueHandler {
	return &QueueHandler{
		editor:  editor,
		keeper:  keeper,
		catalog: catalog,
		idle:    idle,
		logger:  logger,
	}
}

// Routes implements [Handler].
func (h *QueueHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/queue", h.Info},
		{http.MethodGet, "/queue/status", h.Status},
		{http.MethodGet, "/queue/id/{id:[0-9]+}", h.ByID},
		{http.MethodGet, "/queue/changes", h.Changes},
		{http.MethodGet, "/queue/find", h.Find},
		{http.MethodGet, "/queue/idle", h.Idle},
		{http.MethodPost, "/queue/add", h.Add},
		{http.MethodPost, "/queue/delete", h.Delete},
		{http.MethodPost, "/queue/deleteid", h.DeleteID},
		{http.MethodPost, "/queue/move", h.Move},
		{http.MethodPost, "/queue/moveid", h.MoveID},
		{http.MethodPost, "/queue/swap", h.Swap},
		{http.MethodPost, "/queue/swapid", h.SwapID},
		{http.MethodPost, "/queue/prio", h.Prio},
		{http.MethodPost, "/queue/prioid", h.PrioID},
		{http.MethodPost, "/queue/rangeid", h.RangeID},
		{http.MethodPost, "/queue/shuffle", h.Shuffle},
		{http.MethodPost, "/queue/clear", h.Clear},
		{http.MethodPost, "/queue/current", h.SetCurrent},
		{http.MethodPost, "/queue/save", h.Save},
		{http.MethodPost, "/queue/load", h.Load},
		{http.MethodGet, "/queue/snapshots", h.Snapshots},
		{http.MethodDelete, "/queue/snapshots/{name}", h.DeleteSnapshot},
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", shared.ErrInvalidInput, name, s)
	}
	return n, nil
}

func queryVersion(r *http.Request) (uint32, error) {
	s := r.URL.Query().Get("version")
	if s == "" {
		return 0, fmt.Errorf("%w: version", shared.ErrMissingArgument)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: version=%q", shared.ErrInvalidInput, s)
	}
	return uint32(v), nil
}

// queryEpoch reads the epoch the client's version belongs to. Without one the current epoch is assumed.
func queryEpoch(r *http.Request, current uint32) (uint32, error) {
	s := r.URL.Query().Get("epoch")
	if s == "" {
		return current, nil
	}
	e, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: epoch=%q", shared.ErrInvalidInput, s)
	}
	return uint32(e), nil
}

// queryWindow reads the start and end query parameters; a missing end reaches the tail.
func queryWindow(r *http.Request) (int, int, error) {
	start, err := queryInt(r, "start", 0)
	if err != nil {
		return 0, 0, err
	}
	end, err := queryInt(r, "end", queue.ToEnd)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func items(changes []queue.Change) []models.QueueItem {
	out := make([]models.QueueItem, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Entry.Item(c.Position))
	}
	return out
}

func slots(in []queue.Slot) []models.QueueSlot {
	out := make([]models.QueueSlot, 0, len(in))
	for _, s := range in {
		out = append(out, models.QueueSlot{Position: s.Position, ID: s.ID, Version: s.Version})
	}
	return out
}

// Info lists the entries in [start, end).
func (h *QueueHandler) Info(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryWindow(r)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items(h.editor.View().Info(start, end)))
}

// Find lists the entries whose tag matches, exactly or case-folded with fold=true.
func (h *QueueHandler) Find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.TagFilter{Tag: q.Get("tag"), Value: q.Get("value")}
	if s := q.Get("fold"); s != "" {
		fold, err := strconv.ParseBool(s)
		if err != nil {
			respondError(w, fmt.Errorf("%w: fold=%q", shared.ErrInvalidInput, s))
			return
		}
		filter.Fold = fold
	}
	if err := filter.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	writeJSON(w, http.StatusOK, items(h.editor.View().Find(filter.Matcher())))
}

func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.editor.View().Status())
}

func (h *QueueHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondError(w, fmt.Errorf("%w: id", shared.ErrInvalidInput))
		return
	}
	c, ok := h.editor.View().ByID(uint32(id))
	if !ok {
		respondError(w, fmt.Errorf("%w: %d", queue.ErrNoSuchID, id))
		return
	}
	writeJSON(w, http.StatusOK, c.Entry.Item(c.Position))
}

// Changes answers an incremental query against the client's last seen epoch and version.
func (h *QueueHandler) Changes(w http.ResponseWriter, r *http.Request) {
	version, err := queryVersion(r)
	if err != nil {
		respondError(w, err)
		return
	}
	start, end, err := queryWindow(r)
	if err != nil {
		respondError(w, err)
		return
	}

	v := h.editor.View()
	epoch, err := queryEpoch(r, v.Epoch())
	if err != nil {
		respondError(w, err)
		return
	}

	cs := models.ChangeSet{Status: v.Status()}
	if idsOnly, _ := strconv.ParseBool(r.URL.Query().Get("ids")); idsOnly {
		d := v.SinceVersionIDs(epoch, version, start, end)
		cs.Full, cs.Slots = d.Full, slots(d.Items)
	} else {
		d := v.SinceVersion(epoch, version, start, end)
		cs.Full, cs.Items = d.Full, items(d.Items)
	}
	writeJSON(w, http.StatusOK, cs)
}

// Idle blocks until the queue version or the current entry differs from what the client saw.
// Without a current parameter, the current entry at the time of the call is assumed.
func (h *QueueHandler) Idle(w http.ResponseWriter, r *http.Request) {
	version, err := queryVersion(r)
	if err != nil {
		respondError(w, err)
		return
	}
	current, _ := h.editor.View().Current()
	if s := r.URL.Query().Get("current"); s != "" {
		id, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			respondError(w, fmt.Errorf("%w: current=%q", shared.ErrInvalidInput, s))
			return
		}
		current = uint32(id)
	}

	timeout := defaultIdleTimeout
	if s := r.URL.Query().Get("timeout"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			respondError(w, fmt.Errorf("%w: timeout=%q", shared.ErrInvalidInput, s))
			return
		}
		timeout = min(d, maxIdleTimeout)
	}

	v := h.idle.Wait(r.Context(), h.editor.View, version, current, timeout)
	writeJSON(w, http.StatusOK, v.Status())
}

// command runs fn on the queue loop and answers with the resulting status.
func (h *QueueHandler) command(w http.ResponseWriter, r *http.Request, name string, fn func(q *queue.Queue) error) {
	err := h.editor.Apply(r.Context(), fn)
	h.finish(w, name, err)
}

func (h *QueueHandler) finish(w http.ResponseWriter, name string, err error) {
	if err != nil {
		kind, _ := classify(err)
		metrics.RecordCommand(name, kind)
		h.logger.Debug("queue command failed", "command", name, "error", err)
		respondError(w, err)
		return
	}
	metrics.RecordCommand(name, "")
	writeJSON(w, http.StatusOK, h.editor.View().Status())
}

func (h *QueueHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	var (
		ids []uint32
		err error
	)
	if req.Position != nil {
		var id uint32
		id, err = h.editor.AddAndRelocate(r.Context(), req.URI, req.Tags, req.Position)
		if err == nil {
			ids = []uint32{id}
		}
	} else {
		ids, err = h.editor.ResolveAddTarget(r.Context(), req.URI, req.Tags, req.Window, nil)
	}

	if err != nil {
		kind, _ := classify(err)
		metrics.RecordCommand("add", kind)
		respondError(w, err)
		return
	}
	metrics.RecordCommand("add", "")
	writeJSON(w, http.StatusOK, models.AddResponse{IDs: ids, Status: h.editor.View().Status()})
}

func (h *QueueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.Span
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "delete", func(q *queue.Queue) error {
		return q.DeleteRange(req.Start, tasks.SpanEnd(req))
	})
}

func (h *QueueHandler) DeleteID(w http.ResponseWriter, r *http.Request) {
	var req models.IDRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "deleteid", func(q *queue.Queue) error {
		return q.DeleteID(req.ID)
	})
}

func (h *QueueHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req models.MoveRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "move", func(q *queue.Queue) error {
		return q.MoveRange(req.Start, tasks.SpanEnd(req.Span), req.To)
	})
}

func (h *QueueHandler) MoveID(w http.ResponseWriter, r *http.Request) {
	var req models.MoveIDRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "moveid", func(q *queue.Queue) error {
		return q.MoveID(req.ID, req.To)
	})
}

func (h *QueueHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req models.SwapRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "swap", func(q *queue.Queue) error {
		return q.SwapPositions(req.A, req.B)
	})
}

func (h *QueueHandler) SwapID(w http.ResponseWriter, r *http.Request) {
	var req models.SwapIDRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "swapid", func(q *queue.Queue) error {
		return q.SwapIDs(req.A, req.B)
	})
}

func (h *QueueHandler) Prio(w http.ResponseWriter, r *http.Request) {
	var req models.PrioRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if len(req.Ranges) == 0 {
		respondError(w, fmt.Errorf("%w: ranges", shared.ErrMissingArgument))
		return
	}

	ranges := make([]queue.Range, 0, len(req.Ranges))
	for _, s := range req.Ranges {
		ranges = append(ranges, queue.Range{Start: s.Start, End: tasks.SpanEnd(s)})
	}
	h.command(w, r, "prio", func(q *queue.Queue) error {
		return q.SetPriorityRanges(ranges, req.Priority)
	})
}

func (h *QueueHandler) PrioID(w http.ResponseWriter, r *http.Request) {
	var req models.PrioIDRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, fmt.Errorf("%w: ids", shared.ErrMissingArgument))
		return
	}
	h.command(w, r, "prioid", func(q *queue.Queue) error {
		return q.SetPriorityIDs(req.IDs, req.Priority)
	})
}

func (h *QueueHandler) RangeID(w http.ResponseWriter, r *http.Request) {
	var req models.RangeIDRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	start, end, err := tasks.ParseTimeRange(req.Range)
	if err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "rangeid", func(q *queue.Queue) error {
		return q.SetPlayRange(req.ID, start, end)
	})
}

func (h *QueueHandler) Shuffle(w http.ResponseWriter, r *http.Request) {
	var req models.Span
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "shuffle", func(q *queue.Queue) error {
		return q.Shuffle(req.Start, tasks.SpanEnd(req))
	})
}

func (h *QueueHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "clear", func(q *queue.Queue) error {
		q.Clear()
		return nil
	})
}

func (h *QueueHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req models.IDRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.command(w, r, "current", func(q *queue.Queue) error {
		return q.SetCurrent(req.ID)
	})
}

func (h *QueueHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SnapshotRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	n, err := h.keeper.Save(r.Context(), req.Name)
	if err == nil {
		h.logger.Info("queue saved", "name", req.Name, "entries", n)
	}
	h.finish(w, "save", err)
}

func (h *QueueHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req models.SnapshotRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	_, err := h.keeper.Restore(r.Context(), req.Name)
	h.finish(w, "load", err)
}

func (h *QueueHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := h.catalog.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]models.SnapshotSummary, 0, len(infos))
	for _, info := range infos {
		out = append(out, models.SnapshotSummary{Name: info.Name, Entries: info.Entries, SavedAt: info.SavedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *QueueHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.catalog.Delete(r.Context(), name); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
