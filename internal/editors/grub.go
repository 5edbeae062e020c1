package editors

import (
	"bytes"
	"fmt"
	"os"

	"github.com/blackwell-systems/debtune/internal/system"
)

var (
	grubQuietSplash = []byte("quiet splash")
	grubDefault     = []byte("default")
)

// ConfigureGrub replaces every "quiet splash" in the GRUB defaults file with
// "default" and regenerates the boot configuration.
//
// The replacement is a plain substring replace over the whole file; it does
// not parse GRUB_CMDLINE_LINUX_DEFAULT and will also rewrite matches in
// comments or other variables.
func (e *Editor) ConfigureGrub(path string) Result {
	res, ok := e.prepare(path)
	if !ok {
		return res
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return e.grubFailed(res, err)
	}

	updated := bytes.ReplaceAll(content, grubQuietSplash, grubDefault)
	if err := e.writeFile(path, updated); err != nil {
		return e.grubFailed(res, err)
	}
	res.Written = true
	e.logger.Info("GRUB configuration updated.")

	res.Activated = e.runner.Run(system.UpdateGrub())
	return res
}

func (e *Editor) grubFailed(res Result, err error) Result {
	e.logger.Error(fmt.Sprintf("Failed to update GRUB configuration: %v", err))
	res.Err = err
	return res
}
