// Package composer drives the submission form: a local draft, at most one in-flight create
// shown optimistically at the head of the list, and the paginated list itself.
package composer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"snipbox/backend/pkg/client"
	"snipbox/backend/pkg/debounce"
	"snipbox/backend/pkg/draft"
	"snipbox/backend/pkg/logger"
	"snipbox/backend/pkg/sanitizer"
	"snipbox/backend/pkg/validation"
)

const (
	DefaultSaveDelay = 1000 * time.Millisecond
	DefaultPageSize  = 10
)

var (
	// ErrSubmitInFlight rejects a Submit while another create is outstanding.
	ErrSubmitInFlight = errors.New("a submission is already in flight")

	// ErrSuperseded is returned by a fetch whose response arrived after a newer fetch started.
	ErrSuperseded = errors.New("fetch superseded by a newer request")

	ErrNoMorePages = errors.New("no more pages")
)

// State is derived from the controller contents: Submitting while a create is in flight,
// Drafting while a non-blank draft waits for its autosave, Idle otherwise.
type State int

const (
	Idle State = iota
	Drafting
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drafting:
		return "drafting"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Item is one visible row. Pending rows are optimistic: ID is zero and TempID is set.
// Preview is Text as plain text, cut to the preview length.
type Item struct {
	ID        int64
	TempID    string
	Text      string
	Preview   string
	CreatedAt time.Time
	Pending   bool
}

// View is a copy of the controller state for rendering.
type View struct {
	State       State
	Draft       string
	Items       []Item
	NextCursor  *int64
	Err         error
	ErrKind     client.Kind
	LastSavedAt time.Time
}

type Option func(*Controller)

func WithPageSize(n int) Option {
	return func(c *Controller) { c.pageSize = n }
}

// WithPreviewLength sets how many characters of a row Preview keeps.
func WithPreviewLength(n int) Option {
	return func(c *Controller) { c.previewLen = n }
}

func WithSaveDelay(d time.Duration) Option {
	return func(c *Controller) { c.saveDelay = d }
}

func WithScheduler(s debounce.Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithOnChange registers a callback that receives a View after every state change.
// It runs on the goroutine that made the change, outside the controller lock.
func WithOnChange(fn func(View)) Option {
	return func(c *Controller) { c.onChange = fn }
}

type Controller struct {
	api       API
	drafts    draft.Store
	saver     *debounce.Debouncer
	gate      *semaphore.Weighted
	pageSize   int
	previewLen int
	saveDelay  time.Duration
	sched      debounce.Scheduler
	now        func() time.Time
	onChange   func(View)

	// saveMu serializes store writes; each write persists the draft as it is at write time.
	saveMu sync.Mutex

	mu         sync.Mutex
	draft      string
	items      []Item
	nextCursor *int64
	err        error
	lastSaved  time.Time
	pending    *Item
	fetchSeq   uint64
	listGen    uint64
}

// New builds a controller and restores any persisted draft.
func New(api API, drafts draft.Store, opts ...Option) *Controller {
	c := &Controller{
		api:        api,
		drafts:     drafts,
		gate:       semaphore.NewWeighted(1),
		pageSize:   DefaultPageSize,
		previewLen: validation.DefaultTruncateLength,
		saveDelay:  DefaultSaveDelay,
		sched:      debounce.RealScheduler,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.saver = debounce.New(c.saveDelay, c.saveDraft, debounce.WithScheduler(c.sched))

	if text, ok, err := drafts.Load(); err != nil {
		logger.Warn("restore draft", "error", err)
	} else if ok {
		c.draft = text
	}
	return c
}

// SetDraft replaces the draft and schedules a debounced save.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()

	c.saver.Trigger()
	c.notify()
}

// saveDraft persists whatever the draft is when the timer fires. A blank draft clears the key.
func (c *Controller) saveDraft() {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	text := c.draft
	c.mu.Unlock()

	var err error
	if strings.TrimSpace(text) == "" {
		err = c.drafts.Clear()
	} else {
		err = c.drafts.Save(text)
	}
	if err != nil {
		logger.Warn("save draft", "error", err)
		return
	}

	c.mu.Lock()
	c.lastSaved = c.now()
	c.mu.Unlock()
	c.notify()
}

// Submit creates the current draft. Invalid drafts fail locally without a network call.
// While the create is in flight an optimistic row sits at the head of the list; on success
// it becomes the server row and the draft is cleared unless it was edited meanwhile; on
// failure the list is rolled back. Either way the first page
// is re-fetched afterwards. The returned error is the create error.
func (c *Controller) Submit(ctx context.Context) (client.Submission, error) {
	if !c.gate.TryAcquire(1) {
		return client.Submission{}, ErrSubmitInFlight
	}
	defer c.gate.Release(1)

	c.mu.Lock()
	text := c.draft
	if err := validation.Text(text); err != nil {
		c.err = err
		c.mu.Unlock()
		c.notify()
		return client.Submission{}, err
	}
	c.mu.Unlock()

	// Persist now so the draft survives a failed create.
	c.saver.Flush()

	c.mu.Lock()
	snapshot := cloneItems(c.items)
	snapshotCursor := c.nextCursor
	gen := c.listGen

	optimistic := Item{
		TempID:    uuid.NewString(),
		Text:      text,
		Preview:   c.preview(text),
		CreatedAt: c.now(),
		Pending:   true,
	}
	c.pending = &optimistic
	c.items = prepend(optimistic, c.items)
	c.err = nil
	c.mu.Unlock()
	c.notify()

	created, err := c.api.CreateSubmission(ctx, text)

	cleared := false
	c.mu.Lock()
	c.pending = nil
	if err != nil {
		if c.listGen == gen {
			c.items = snapshot
			c.nextCursor = snapshotCursor
		} else {
			// A fetch landed during the flight; keep its rows and drop only ours.
			c.items = removeTemp(c.items, optimistic.TempID)
		}
		c.err = err
	} else {
		c.items = replaceTemp(c.items, optimistic.TempID, c.fromSubmission(created))
		if c.draft == text {
			c.draft = ""
			cleared = true
		}
	}
	c.mu.Unlock()

	switch {
	case err != nil:
		logger.Debug("submission rolled back", "error", err, "kind", client.Classify(err))
	case cleared:
		// Writes the blank draft now, which clears the stored copy.
		c.saver.Cancel()
		c.saveDraft()
	}
	c.notify()

	if ferr := c.Refresh(ctx); ferr != nil && !errors.Is(ferr, ErrSuperseded) {
		logger.Debug("refresh after submit", "error", ferr)
	}

	if err != nil {
		return client.Submission{}, err
	}
	return created, nil
}

// Refresh replaces the list with the first page.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, nil, false)
}

// LoadMore appends the page after the current cursor.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	cursor := c.nextCursor
	c.mu.Unlock()
	if cursor == nil {
		return ErrNoMorePages
	}
	next := *cursor
	return c.fetch(ctx, &next, true)
}

// fetch applies only the response of the most recently started request.
func (c *Controller) fetch(ctx context.Context, cursor *int64, appendPage bool) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	page, err := c.api.ListSubmissions(ctx, client.ListOptions{Limit: c.pageSize, Cursor: cursor})

	c.mu.Lock()
	if seq != c.fetchSeq {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		// A failed fetch keeps the current list; a create error is not overwritten.
		if c.err == nil {
			c.err = err
		}
		c.mu.Unlock()
		c.notify()
		return err
	}

	fetched := make([]Item, 0, len(page.Items)+1)
	for _, s := range page.Items {
		fetched = append(fetched, c.fromSubmission(s))
	}
	if appendPage {
		c.items = appendUnique(c.items, fetched)
	} else {
		if c.pending != nil {
			fetched = prepend(*c.pending, fetched)
		}
		c.items = fetched
	}
	c.nextCursor = page.NextCursor
	c.listGen++
	c.mu.Unlock()
	c.notify()
	return nil
}

// ClearError dismisses the last error.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	v := View{
		State:       Idle,
		Draft:       c.draft,
		Items:       cloneItems(c.items),
		Err:         c.err,
		ErrKind:     client.Classify(c.err),
		LastSavedAt: c.lastSaved,
	}
	if c.nextCursor != nil {
		next := *c.nextCursor
		v.NextCursor = &next
	}
	switch {
	case c.pending != nil:
		v.State = Submitting
	case strings.TrimSpace(c.draft) != "" && c.saver.Pending():
		v.State = Drafting
	}
	return v
}

// Close writes out a pending draft save.
func (c *Controller) Close() {
	c.saver.Flush()
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.View())
}

func (c *Controller) fromSubmission(s client.Submission) Item {
	return Item{ID: s.ID, Text: s.Text, Preview: c.preview(s.Text), CreatedAt: s.CreatedAt}
}

func (c *Controller) preview(text string) string {
	return validation.Truncate(sanitizer.PlainText(text), c.previewLen)
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func prepend(item Item, items []Item) []Item {
	out := make([]Item, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

func removeTemp(items []Item, tempID string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Pending && it.TempID == tempID {
			continue
		}
		out = append(out, it)
	}
	return out
}

// replaceTemp swaps the optimistic row for the server row. If a fetch already brought the
// server row in, the optimistic row is just dropped.
func replaceTemp(items []Item, tempID string, created Item) []Item {
	for _, it := range items {
		if !it.Pending && it.ID == created.ID {
			return removeTemp(items, tempID)
		}
	}
	out := make([]Item, 0, len(items))
	replaced := false
	for _, it := range items {
		if it.Pending && it.TempID == tempID {
			out = append(out, created)
			replaced = true
			continue
		}
		out = append(out, it)
	}
	if !replaced {
		out = prepend(created, out)
	}
	return out
}

func appendUnique(items, more []Item) []Item {
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if !it.Pending {
			seen[it.ID] = struct{}{}
		}
	}
	out := cloneItems(items)
	for _, it := range more {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		out = append(out, it)
	}
	return out
}
