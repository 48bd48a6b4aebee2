package viewport

// Entry reports a target whose visibility state changed.
type Entry struct {
	ID           int
	Ratio        float64
	Intersecting bool
}

type target struct {
	id     int
	rect   func() Rect
	seen   bool
	inView bool
}

// Observer reports when targets cross a visibility threshold against a root box.
// The first Check after Observe always reports the target.
type Observer struct {
	threshold float64
	root      func() Rect
	deliver   func([]Entry)
	targets   []*target
	closed    bool
}

func NewObserver(threshold float64, root func() Rect, deliver func([]Entry)) *Observer {
	return &Observer{threshold: threshold, root: root, deliver: deliver}
}

// Observe starts tracking id. Targets are reported in the order they were observed.
func (o *Observer) Observe(id int, rect func() Rect) {
	if o.closed {
		return
	}
	o.targets = append(o.targets, &target{id: id, rect: rect})
}

func (o *Observer) Unobserve(id int) {
	for i, t := range o.targets {
		if t.id == id {
			o.targets = append(o.targets[:i], o.targets[i+1:]...)
			return
		}
	}
}

// Disconnect stops all tracking; later Observe and Check calls do nothing.
func (o *Observer) Disconnect() {
	o.closed = true
	o.targets = nil
}

// Ratio is the fraction of r's area inside the root.
func (o *Observer) Ratio(r Rect) float64 {
	area := r.Area()
	if area == 0 {
		return 0
	}
	return r.Intersect(o.root()).Area() / area
}

// Check recomputes every target and delivers one batch with the changed ones.
func (o *Observer) Check() []Entry {
	if o.closed {
		return nil
	}
	var batch []Entry
	for _, t := range o.targets {
		ratio := o.Ratio(t.rect())
		in := ratio >= o.threshold && ratio > 0
		if t.seen && in == t.inView {
			continue
		}
		t.seen, t.inView = true, in
		batch = append(batch, Entry{ID: t.id, Ratio: ratio, Intersecting: in})
	}
	if len(batch) > 0 && o.deliver != nil {
		o.deliver(batch)
	}
	return batch
}
