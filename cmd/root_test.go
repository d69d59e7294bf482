package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_noArgsAndHelpHaveSameResultAndDoDontPanic(t *testing.T) {
	cmdArgsTestCases := [][]string{
		{"--help"},
		{},
	}

	for i, cmdArgs := range cmdArgsTestCases {
		// setup
		rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
		rootCmd.SetArgs(cmdArgs)
		var out bytes.Buffer
		rootCmd.SetOut(&out)

		// test
		err := rootCmd.Execute()
		assert.NoErrorf(t, err, "test case %d returned an error", i)

		// assert printed text
		assert.Containsf(t, out.String(), "Use \"customer-intake [command] --help\" for more information about a command.", "test case %d did not print help message as expected", i)
	}
}

func Test_SetupCLI_subcommands(t *testing.T) {
	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")

	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"serve", "db", "customers"})

	envFileFlag := rootCmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFileFlag, "the env-file flag must be accepted by cobra")
	assert.Equal(t, "x.y.z", rootCmd.Version)
}
