package editors

import "fmt"

// WifiPowerSaveContent disables NetworkManager Wi-Fi power saving.
const WifiPowerSaveContent = "[connection]\nwifi.powersave = 2\n"

// DisableWifiPowerSave overwrites the NetworkManager drop-in at path. It runs
// no command; NetworkManager picks the change up when restarted.
func (e *Editor) DisableWifiPowerSave(path string) Result {
	res, ok := e.prepare(path)
	if !ok {
		return res
	}

	if err := e.writeFile(path, []byte(WifiPowerSaveContent)); err != nil {
		e.logger.Error(fmt.Sprintf("Failed to disable Wi-Fi power management: %v", err))
		res.Err = err
		return res
	}
	res.Written = true
	e.logger.Info("Wi-Fi power management disabled.")
	return res
}
