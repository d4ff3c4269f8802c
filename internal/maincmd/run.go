package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/interp"
	"github.com/mna/glox/lang/machine"
)

// Run compiles and executes each file in turn.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
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
		vm.Stdout = stdio.Stdout
		vm.Stderr = stdio.Stderr

		result, err := interp.Interpret(ctx, vm, string(src))
		vm.Close()
		if err != nil {
			return err
		}
		if result != machine.InterpretOK {
			return fmt.Errorf("%s: %v", path, result)
		}
	}
	return nil
}
