package extsigner

import (
	"errors"
	"fmt"
	"sync"

	"github.com/agiangrant/extsigner/internal/ffi"
	"go.uber.org/zap"
)

// ErrClosed is returned by calls on a closed Signer.
var ErrClosed = errors.New("signer closed")

// ErrNativeCall is returned when the native module hands back a null
// result.
var ErrNativeCall = errors.New("native call returned no result")

// ErrUnsupported is returned by Sign on hosts where the native signature
// struct cannot be returned across the call boundary.
var ErrUnsupported = ffi.ErrUnsupported

// Signature is an ECDSA signature over the Stark curve as returned by the
// native module, each component in fixed-width hex.
type Signature struct {
	R string
	S string
	V string
}

// Order holds the fields hashed by get_order_hash. Asset ids and the user
// key are hex field elements.
type Order struct {
	PositionID    uint32
	BaseAssetID   string
	BaseAmount    int64
	QuoteAssetID  string
	QuoteAmount   int64
	FeeAssetID    string
	FeeAmount     uint64
	Expiration    uint64 // unix seconds
	Salt          uint64
	UserPublicKey string
	DomainChainID string
}

// Signer calls into the native signer module. It is safe for concurrent
// use; native calls are serialized.
type Signer struct {
	mu     sync.Mutex
	ep     *ffi.EntryPoints
	loader *ffi.Loader
	path   string
}

// Open locates and loads the native module described by cfg and binds
// its entry points. The resolver is registered with the loader before
// the first load.
func Open(cfg Config) (*Signer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loader := ffi.NewLoader()
	name := cfg.Library.Name
	path := cfg.Library.Path

	if path == "" {
		r, err := ffi.NewResolver(name, cfg.Library.BaseDir, ffi.CurrentHost())
		if err != nil {
			return nil, err
		}
		err = loader.SetResolver(func(requested string) (ffi.Handle, bool, error) {
			h, p, ok, err := r.ResolvePath(requested)
			if ok {
				path = p
			}
			return h, ok, err
		})
		if err != nil {
			return nil, err
		}
	} else {
		// An explicit path is handed straight to the OS loader.
		name = path
	}

	h, err := loader.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load native library %s: %w", path, err)
	}

	ep, err := ffi.Bind(h)
	if err != nil {
		return nil, errors.Join(err, loader.Close())
	}

	Logger().Info("native signer loaded", zap.String("path", path))
	return &Signer{ep: ep, loader: loader, path: path}, nil
}

func newSigner(ep *ffi.EntryPoints) *Signer {
	return &Signer{ep: ep}
}

// Path returns the file the native module was loaded from.
func (s *Signer) Path() string {
	return s.path
}

// Sign signs message with privateKey. Both are hex field elements.
func (s *Signer) Sign(message, privateKey string) (Signature, error) {
	msg, err := normalizeFelt("message", message)
	if err != nil {
		return Signature{}, err
	}
	key, err := normalizeFelt("private key", privateKey)
	if err != nil {
		return Signature{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ep == nil {
		return Signature{}, ErrClosed
	}
	if s.ep.Sign == nil {
		return Signature{}, fmt.Errorf("%s: %w", ffi.SymSign, ErrUnsupported)
	}

	c := s.ep.Sign(msg, key)
	if c.R == 0 || c.S == 0 || c.V == 0 {
		for _, p := range []uintptr{c.R, c.S, c.V} {
			if p != 0 {
				s.ep.FreeString1(p)
			}
		}
		return Signature{}, fmt.Errorf("%s: %w", ffi.SymSign, ErrNativeCall)
	}
	defer s.ep.FreeString3(c.R, c.S, c.V)
	return Signature{
		R: ffi.GoString(c.R),
		S: ffi.GoString(c.S),
		V: ffi.GoString(c.V),
	}, nil
}

// OrderHash returns the hex message hash of o under the Perpetuals domain
// for o.DomainChainID.
func (s *Signer) OrderHash(o Order) (string, error) {
	base, err := normalizeFelt("base asset id", o.BaseAssetID)
	if err != nil {
		return "", err
	}
	quote, err := normalizeFelt("quote asset id", o.QuoteAssetID)
	if err != nil {
		return "", err
	}
	fee, err := normalizeFelt("fee asset id", o.FeeAssetID)
	if err != nil {
		return "", err
	}
	user, err := normalizeFelt("user public key", o.UserPublicKey)
	if err != nil {
		return "", err
	}
	if err := checkText("domain chain id", o.DomainChainID); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ep == nil {
		return "", ErrClosed
	}

	ptr := s.ep.OrderHash(
		o.PositionID,
		base, o.BaseAmount,
		quote, o.QuoteAmount,
		fee, o.FeeAmount,
		o.Expiration,
		o.Salt,
		user,
		o.DomainChainID,
	)
	if ptr == 0 {
		return "", fmt.Errorf("%s: %w", ffi.SymOrderHash, ErrNativeCall)
	}
	defer s.ep.FreeString1(ptr)
	return ffi.GoString(ptr), nil
}

// Close releases the native module. Further calls return ErrClosed.
func (s *Signer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ep = nil
	if s.loader == nil {
		return nil
	}
	err := s.loader.Close()
	s.loader = nil
	return err
}
