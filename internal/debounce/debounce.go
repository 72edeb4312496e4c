// debounce — задержка распространения быстро меняющегося значения до тех пор,
// пока оно не устоится на фиксированное окно.
package debounce

import (
	"sync"
	"time"
)

// Debouncer публикует последнее значение, переданное в Set, если в течение
// delay не было новых Set. Значение, равное уже опубликованному, повторно
// не публикуется, а возврат к нему отменяет ожидающую публикацию.
//
// fn вызывается из горутины таймера; вызовы fn не пересекаются.
type Debouncer[T comparable] struct {
	delay time.Duration
	fn    func(T)

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64
	pending   T
	hasValue  bool
	published T
	stopped   bool

	fire sync.Mutex
}

// New — initial считается уже опубликованным значением.
func New[T comparable](delay time.Duration, initial T, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		delay:     delay,
		fn:        fn,
		published: initial,
	}
}

// Set перезапускает окно ожидания со значением v.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if v == d.published {
		d.hasValue = false
		return
	}

	d.pending = v
	d.hasValue = true

	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.emit(gen) })
}

// Flush немедленно публикует ожидающее значение, если оно есть.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	gen := d.gen
	d.mu.Unlock()

	d.emit(gen)
}

// Stop отменяет ожидающую публикацию; последующие Set игнорируются.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	d.hasValue = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Value — последнее опубликованное значение.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.published
}

// Pending — значение, ожидающее публикации, и признак его наличия.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending, d.hasValue
}

func (d *Debouncer[T]) emit(gen uint64) {
	d.fire.Lock()
	defer d.fire.Unlock()

	d.mu.Lock()
	if gen != d.gen || !d.hasValue || d.stopped {
		d.mu.Unlock()
		return
	}

	v := d.pending
	d.published = v
	d.hasValue = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}
