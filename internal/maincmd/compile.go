package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/machine"
)

// Compile runs the compiler over each file and reports compile errors
// without executing the result.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "loading configuration: %s\n", err)
		return err
	}

	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			return err
		}

		vm := machine.New(cfg.Machine())
		if _, ok := compiler.Compile(vm, string(src)); !ok {
			vm.Close()
			return fmt.Errorf("%s: compile error", path)
		}
		vm.Close()
	}
	return nil
}
