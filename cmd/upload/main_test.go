package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"povcli/internal/config"
)

func TestUploadTargets(t *testing.T) {
	paths := &config.Paths{CSVFile: "/out/pip.csv", XLSXFile: "/out/pip.xlsx", JSONFile: "/out/pip.json"}

	assert.Equal(t, []string{"/out/pip.csv", "/out/pip.xlsx"}, uploadTargets(paths, ""))
	assert.Equal(t, []string{"a.csv", "b.json"}, uploadTargets(paths, " a.csv,b.json ,"))
}
