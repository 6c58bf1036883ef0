package attendance

import (
	"sync"
	"time"
)

const (
	defaultQuietDelay = 2 * time.Second
	defaultMaxDelay   = 15 * time.Second
)

type pendingForm struct {
	form     DailyForm
	timer    *time.Timer
	deadline time.Time
}

// autosaver coalesces rapid per-form writes: a buffered form is persisted
// after quietDelay without further edits, or at maxDelay after the first
// buffered edit, whichever comes first. Keys are (employee, date) pairs so
// concurrent employees never contend on each other's forms.
type autosaver struct {
	mu      sync.Mutex
	pending map[string]*pendingForm

	persist    func(DailyForm)
	quietDelay time.Duration
	maxDelay   time.Duration
}

func newAutosaver(persist func(DailyForm), quietDelay, maxDelay time.Duration) *autosaver {
	return &autosaver{
		pending:    make(map[string]*pendingForm),
		persist:    persist,
		quietDelay: quietDelay,
		maxDelay:   maxDelay,
	}
}

// get returns the buffered copy of a form, if any. Buffered copies are always
// fresher than storage and must win on read.
func (a *autosaver) get(key string) (DailyForm, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[key]; ok {
		return p.form, true
	}
	return DailyForm{}, false
}

// put buffers the latest copy of a form and (re)arms its flush timer without
// extending the hard deadline set by the first buffered edit.
func (a *autosaver) put(key string, form DailyForm) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	if p, ok := a.pending[key]; ok {
		p.form = form
		delay := a.quietDelay
		if remaining := p.deadline.Sub(now); remaining < delay {
			delay = remaining
		}
		if delay < 0 {
			delay = 0
		}
		p.timer.Reset(delay)
		return
	}

	p := &pendingForm{form: form, deadline: now.Add(a.maxDelay)}
	p.timer = time.AfterFunc(a.quietDelay, func() { a.flushKey(key) })
	a.pending[key] = p
}

// discard drops a buffered form without persisting it; used when the caller
// persists a superseding copy itself.
func (a *autosaver) discard(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[key]; ok {
		p.timer.Stop()
		delete(a.pending, key)
	}
}

// flushKey persists a buffered form immediately. Safe to call from the flush
// timer and from read/transition paths that need storage up to date.
func (a *autosaver) flushKey(key string) {
	a.mu.Lock()
	p, ok := a.pending[key]
	if ok {
		p.timer.Stop()
		delete(a.pending, key)
	}
	a.mu.Unlock()

	if ok {
		a.persist(p.form)
	}
}

func (a *autosaver) flushAll() {
	a.mu.Lock()
	flushed := make([]*pendingForm, 0, len(a.pending))
	for key, p := range a.pending {
		p.timer.Stop()
		delete(a.pending, key)
		flushed = append(flushed, p)
	}
	a.mu.Unlock()

	for _, p := range flushed {
		a.persist(p.form)
	}
}
