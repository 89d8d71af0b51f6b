package commands

import (
	"fmt"
	"io"

	"github.com/agiangrant/extsigner"
)

// Load implements the 'extsigner load' command: it opens the native
// module and reports where it came from.
func Load(w io.Writer, cfg extsigner.Config) error {
	s, err := extsigner.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(w, "✓ Loaded %s\n", s.Path())
	return nil
}

// Sign implements the 'extsigner sign' command.
func Sign(w io.Writer, cfg extsigner.Config, message, privateKey string) error {
	s, err := extsigner.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	sig, err := s.Sign(message, privateKey)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "r: %s\ns: %s\nv: %s\n", sig.R, sig.S, sig.V)
	return nil
}

// OrderHash implements the 'extsigner order-hash' command.
func OrderHash(w io.Writer, cfg extsigner.Config, o extsigner.Order) error {
	s, err := extsigner.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	hash, err := s.OrderHash(o)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, hash)
	return nil
}
