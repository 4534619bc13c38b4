package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	args := BuildArgs(map[string]string{
		"atmos":     "",
		"alac-max":  "192000",
		"aac-type":  "aac",
		"all-album": "",
	})
	assert.Equal(t, []string{"--aac-type", "aac", "--alac-max", "192000", "--all-album", "--atmos"}, args)
}

func TestBuildArgsDropsUnknownKeys(t *testing.T) {
	args := BuildArgs(map[string]string{
		"rm":            "-rf /",
		"--exec":        "curl evil.sh",
		"output":        "/etc",
		"mv-audio-type": "atmos",
	})
	assert.Equal(t, []string{"--mv-audio-type", "atmos"}, args)
}

func TestBuildArgsBooleanIgnoresValue(t *testing.T) {
	// Boolean options never forward user-supplied values.
	args := BuildArgs(map[string]string{"debug": "whatever"})
	assert.Equal(t, []string{"--debug"}, args)
}

func TestBuildArgsValueOptionWithoutValue(t *testing.T) {
	args := BuildArgs(map[string]string{"alac-max": ""})
	assert.Empty(t, args)
}

func TestSupportedOptionsSorted(t *testing.T) {
	specs := SupportedOptions()
	assert.Len(t, specs, len(optionSchema))
	for i := 1; i < len(specs); i++ {
		assert.Less(t, specs[i-1].Key, specs[i].Key)
	}
}
