// Package config provides user configuration management for pantti.
//
// The configuration is a versioned YAML file holding the lookup endpoint,
// capture device options, the web host settings and UI preferences. Every
// field has a default, so a missing file or a missing section is never an
// error. Command-line flags override whatever the file says.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/pantti/config.yaml or $HOME/.config/pantti/config.yaml
//   - macOS: $HOME/.config/pantti/config.yaml
//   - Windows: %LOCALAPPDATA%\pantti\config.yaml
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg.Server.Port = 9000
//
//	// Save changes atomically
//	if err := cfg.Save(""); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// File operations are protected by a mutex to ensure atomic writes.
package config
