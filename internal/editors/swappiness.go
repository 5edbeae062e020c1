package editors

import (
	"fmt"

	"github.com/blackwell-systems/debtune/internal/system"
)

// SwappinessContent is the full content written to the swappiness drop-in.
const SwappinessContent = "vm.swappiness=10\n"

// ConfigureSwappiness overwrites the sysctl drop-in at path and reloads
// sysctl settings.
func (e *Editor) ConfigureSwappiness(path string) Result {
	res, ok := e.prepare(path)
	if !ok {
		return res
	}

	if err := e.writeFile(path, []byte(SwappinessContent)); err != nil {
		e.logger.Error(fmt.Sprintf("Failed to configure swappiness: %v", err))
		res.Err = err
		return res
	}
	res.Written = true
	e.logger.Info("Swappiness configured.")

	// "sysctl -p" reads /etc/sysctl.conf only; the drop-in takes effect on
	// the next boot or "sysctl --system".
	res.Activated = e.runner.Run(system.ReloadSysctl())
	return res
}
