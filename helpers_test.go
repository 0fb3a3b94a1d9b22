package authclient_test

import (
	"net/url"
	"sort"
	"sync"
	"time"

	authclient "github.com/goliatone/go-auth-client"
)

type fakePage struct {
	mu sync.Mutex

	path   string
	query  url.Values
	values map[string]string
	types  map[string]string
	absent map[string]bool

	submits map[string]func()
	clicks  map[string]func()

	navigations []string
	alerts      []authclient.Alert
	current     *authclient.Alert
	busy        map[string][]bool
	revealed    map[string]bool
}

func newFakePage(path string, query url.Values) *fakePage {
	if query == nil {
		query = url.Values{}
	}
	return &fakePage{
		path:     path,
		query:    query,
		values:   map[string]string{},
		types:    map[string]string{"password": "password"},
		absent:   map[string]bool{},
		submits:  map[string]func(){},
		clicks:   map[string]func(){},
		busy:     map[string][]bool{},
		revealed: map[string]bool{},
	}
}

func (p *fakePage) OnSubmit(formID string, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submits[formID] = fn
}

func (p *fakePage) OnClick(elementID string, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks[elementID] = fn
}

func (p *fakePage) Value(elementID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[elementID]
}

func (p *fakePage) Path() string { return p.path }

func (p *fakePage) QueryParams() url.Values { return p.query }

func (p *fakePage) Navigate(target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, target)
}

func (p *fakePage) RenderAlert(_ string, alert authclient.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
	p.current = &alert
}

func (p *fakePage) ClearAlert(string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}

func (p *fakePage) SetBusy(controlID string, busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy[controlID] = append(p.busy[controlID], busy)
}

func (p *fakePage) InputType(elementID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.types[elementID]
}

func (p *fakePage) SetInputType(elementID, inputType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types[elementID] = inputType
}

func (p *fakePage) SetIconRevealed(elementID string, revealed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revealed[elementID] = revealed
}

func (p *fakePage) Exists(elementID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.absent[elementID]
}

func (p *fakePage) submit(formID string) {
	p.mu.Lock()
	fn := p.submits[formID]
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *fakePage) click(elementID string) {
	p.mu.Lock()
	fn := p.clicks[elementID]
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *fakePage) lastAlert() (authclient.Alert, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.alerts) == 0 {
		return authclient.Alert{}, false
	}
	return p.alerts[len(p.alerts)-1], true
}

func (p *fakePage) visibleAlert() *authclient.Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *fakePage) navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

func (p *fakePage) busyStates(controlID string) []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.busy[controlID]...)
}

// manualScheduler runs tasks when the test advances its clock.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks map[string]manualTask
}

type manualTask struct {
	due time.Duration
	seq int
	fn  func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{tasks: map[string]manualTask{}}
}

func (s *manualScheduler) Schedule(name string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = manualTask{due: s.now + delay, seq: len(s.tasks), fn: fn}
}

func (s *manualScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, name)
}

func (s *manualScheduler) pending(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[name]
	return task.due - s.now, ok
}

// Advance moves the clock and fires every task that became due, earliest
// first.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	type due struct {
		name string
		task manualTask
	}
	var ready []due
	for name, task := range s.tasks {
		if task.due <= s.now {
			ready = append(ready, due{name: name, task: task})
			delete(s.tasks, name)
		}
	}
	s.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].task.due == ready[j].task.due {
			return ready[i].task.seq < ready[j].task.seq
		}
		return ready[i].task.due < ready[j].task.due
	})
	for _, r := range ready {
		r.task.fn()
	}
}
