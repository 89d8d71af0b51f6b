package ffi

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrResolverAlreadySet is returned by SetResolver on a second registration.
var ErrResolverAlreadySet = errors.New("resolver already registered")

// Loader owns the native modules of one component. A ResolverFunc is
// registered once at startup; the first Load of a name consults it, and
// the resulting handle is reused until Close.
type Loader struct {
	mu       sync.Mutex
	resolver ResolverFunc
	handles  map[string]Handle
	group    singleflight.Group

	open  func(string) (Handle, error)
	close func(Handle) error
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOpener sets the loader used when the resolver declines a name.
func WithOpener(open func(string) (Handle, error)) LoaderOption {
	return func(l *Loader) { l.open = open }
}

// WithCloser sets the function used to release handles on Close.
func WithCloser(close func(Handle) error) LoaderOption {
	return func(l *Loader) { l.close = close }
}

// NewLoader returns a Loader with no resolver registered.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		handles: make(map[string]Handle),
		open:    openLibrary,
		close:   closeLibrary,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetResolver registers fn. It may be called once.
func (l *Loader) SetResolver(fn ResolverFunc) error {
	if fn == nil {
		return errors.New("nil resolver")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolver != nil {
		return ErrResolverAlreadySet
	}
	l.resolver = fn
	return nil
}

// Load returns the handle for name, loading it on first use. Concurrent
// first calls share a single resolution. Failed loads are not remembered.
func (l *Loader) Load(name string) (Handle, error) {
	l.mu.Lock()
	if h, ok := l.handles[name]; ok {
		l.mu.Unlock()
		return h, nil
	}
	resolver := l.resolver
	l.mu.Unlock()

	v, err, _ := l.group.Do(name, func() (any, error) {
		l.mu.Lock()
		if h, ok := l.handles[name]; ok {
			l.mu.Unlock()
			return h, nil
		}
		l.mu.Unlock()

		h, err := l.resolve(resolver, name)
		if err != nil {
			return Handle(0), err
		}

		l.mu.Lock()
		l.handles[name] = h
		l.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(Handle), nil
}

func (l *Loader) resolve(resolver ResolverFunc, name string) (Handle, error) {
	if resolver != nil {
		h, ok, err := resolver(name)
		if ok {
			return h, err
		}
	}
	Logger().Debug("no resolver for native library, using default search",
		zap.String("name", name))
	return l.open(name)
}

// Loaded reports whether name has been loaded successfully.
func (l *Loader) Loaded(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.handles[name]
	return ok
}

// Close releases every handle opened through l.
func (l *Loader) Close() error {
	l.mu.Lock()
	handles := l.handles
	l.handles = make(map[string]Handle)
	l.mu.Unlock()

	var errs []error
	for name, h := range handles {
		if err := l.close(h); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
