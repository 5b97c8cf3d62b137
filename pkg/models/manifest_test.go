package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFramework(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{".NETCoreApp,Version=v6.0", "net6.0"},
		{".NETCoreApp,Version=v3.1", "netcoreapp3.1"},
		{".NETFramework,Version=v4.7.2", "net472"},
		{".NETFramework,Version=v4.8,Profile=Client", "net48"},
		{".NETStandard,Version=v2.0", "netstandard2.0"},
		{"net6.0-windows7.0", "net6.0-windows7.0"},
		{"NET6.0", "net6.0"},
		{"net472", "net472"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeFramework(tt.input))
		})
	}
}

func TestManifestFrameworkFor(t *testing.T) {
	m := &Manifest{
		Frameworks: []FrameworkInfo{
			{Name: "net472", TargetAlias: "net472"},
			{Name: "net6.0", TargetAlias: "modern"},
		},
	}

	fw, err := m.FrameworkFor(Target{Framework: ".NETCoreApp,Version=v6.0"})
	require.NoError(t, err)
	assert.Equal(t, "modern", fw.Alias())

	fw, err = m.FrameworkFor(Target{Framework: ".NETFramework,Version=v4.7.2"})
	require.NoError(t, err)
	assert.Equal(t, "net472", fw.Alias())

	fw, err = m.FrameworkFor(Target{Framework: "MODERN"})
	require.NoError(t, err)
	assert.Equal(t, "net6.0", fw.Name)

	_, err = m.FrameworkFor(Target{Framework: "netstandard2.0"})
	assert.ErrorIs(t, err, ErrFrameworkNotFound)
}

func TestFrameworkInfoAlias(t *testing.T) {
	assert.Equal(t, "net6.0", FrameworkInfo{Name: "net6.0"}.Alias())
	assert.Equal(t, "x", FrameworkInfo{Name: "net6.0", TargetAlias: "x"}.Alias())
}
