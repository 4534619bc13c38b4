package runner

import (
	"sort"
)

// OptionSpec describes one user-facing option and the tool flag it maps to.
// The schema is the single source of truth for both the command builder and
// any surface that advertises supported options.
type OptionSpec struct {
	Key         string `json:"key"`
	Flag        string `json:"flag"`
	TakesValue  bool   `json:"takesValue"`
	Description string `json:"description"`
}

var optionSchema = map[string]OptionSpec{
	"aac":           {Key: "aac", Flag: "--aac", Description: "download AAC instead of lossless"},
	"aac-type":      {Key: "aac-type", Flag: "--aac-type", TakesValue: true, Description: "AAC variant (aac, aac-binaural, aac-downmix)"},
	"alac-max":      {Key: "alac-max", Flag: "--alac-max", TakesValue: true, Description: "maximum ALAC sample rate"},
	"all-album":     {Key: "all-album", Flag: "--all-album", Description: "download every album of an artist"},
	"atmos":         {Key: "atmos", Flag: "--atmos", Description: "download the Dolby Atmos variant"},
	"atmos-max":     {Key: "atmos-max", Flag: "--atmos-max", TakesValue: true, Description: "maximum Atmos bitrate"},
	"debug":         {Key: "debug", Flag: "--debug", Description: "verbose tool output"},
	"mv-audio-type": {Key: "mv-audio-type", Flag: "--mv-audio-type", TakesValue: true, Description: "music video audio codec"},
	"mv-max":        {Key: "mv-max", Flag: "--mv-max", TakesValue: true, Description: "maximum music video resolution"},
	"select":        {Key: "select", Flag: "--select", Description: "interactively select tracks"},
	"song":          {Key: "song", Flag: "--song", Description: "treat the URL as a single song"},
}

// SupportedOptions returns the schema sorted by key, for display surfaces.
func SupportedOptions() []OptionSpec {
	specs := make([]OptionSpec, 0, len(optionSchema))
	for _, spec := range optionSchema {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Key < specs[j].Key })
	return specs
}

// BuildArgs converts user options into the tool's argument vector. Keys not
// present in the schema are dropped, never forwarded verbatim, so user input
// cannot inject arbitrary flags. An empty value marks a boolean option.
// Output order is deterministic.
func BuildArgs(options map[string]string) []string {
	keys := make([]string, 0, len(options))
	for key := range options {
		if _, ok := optionSchema[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var args []string
	for _, key := range keys {
		spec := optionSchema[key]
		value := options[key]
		switch {
		case !spec.TakesValue:
			args = append(args, spec.Flag)
		case value != "":
			args = append(args, spec.Flag, value)
		}
	}
	return args
}
