package config

import "github.com/xplshn/blocksol/pkg/cli"

// SetupFlagGroups registers a -W<name>/-Wno-<name> pair for every warning
// and a -F<name>/-Fno-<name> pair for every feature. The returned entries
// are indexed by Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) (warnings, features []cli.GroupEntry) {
	warnings = make([]cli.GroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		warnings[i] = groupEntry(c.Warnings[i])
	}
	features = make([]cli.GroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		features[i] = groupEntry(c.Features[i])
	}

	fs.AddGroup(cli.FlagGroup{Title: "Warning Flags", Prefix: "W", Kind: "warning", Entries: warnings})
	fs.AddGroup(cli.FlagGroup{Title: "Feature Flags", Prefix: "F", Kind: "feature", Entries: features})
	return warnings, features
}

func groupEntry(info Info) cli.GroupEntry {
	enabled, disabled := info.Enabled, false
	return cli.GroupEntry{Name: info.Name, Usage: info.Description, Enabled: &enabled, Disabled: &disabled}
}

// ApplyFlagGroups copies the state of the entries returned by
// SetupFlagGroups back into the configuration. A -Wno-/-Fno- flag wins
// over its enabling twin.
func (c *Config) ApplyFlagGroups(warnings, features []cli.GroupEntry) {
	for i, e := range warnings {
		c.SetWarning(Warning(i), entryState(e))
	}
	for i, e := range features {
		c.SetFeature(Feature(i), entryState(e))
	}
}

func entryState(e cli.GroupEntry) bool {
	return e.Enabled != nil && *e.Enabled && (e.Disabled == nil || !*e.Disabled)
}
