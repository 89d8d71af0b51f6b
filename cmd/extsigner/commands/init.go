package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/agiangrant/extsigner"
)

// Init implements the 'extsigner init' command
func Init(w io.Writer, path, name string, force bool) error {
	if path == "" {
		path = extsigner.DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	config := extsigner.DefaultConfig()
	if name != "" {
		config.Library.Name = name
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if err := extsigner.SaveConfig(path, config); err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Created %s\n", path)
	return nil
}
