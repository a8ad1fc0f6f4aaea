package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
)

func TestSettings_WithDefaults(t *testing.T) {
	t.Run("zero value gets defaults", func(t *testing.T) {
		s := model.Settings{}.WithDefaults()
		gt.Equal(t, s.ToolPath, model.DefaultToolPath)
		gt.Equal(t, s.Workers, 1)
		gt.Equal(t, s.MarkerExtensions, []string{".uplugin"})
		gt.Equal(t, s.MarkerPolicy, model.MarkerPolicyReject)
	})

	t.Run("workers are clamped", func(t *testing.T) {
		gt.Equal(t, model.Settings{Workers: -3}.WithDefaults().Workers, 1)
		gt.Equal(t, model.Settings{Workers: 4}.WithDefaults().Workers, 4)
		gt.Equal(t, model.Settings{Workers: 64}.WithDefaults().Workers, model.MaxWorkers)
	})

	t.Run("extensions are copied", func(t *testing.T) {
		exts := []string{".uplugin"}
		s := model.Settings{MarkerExtensions: exts}.WithDefaults()
		s.MarkerExtensions[0] = ".changed"
		gt.Equal(t, exts[0], ".uplugin")
	})
}

func TestMarkerPolicy_IsValid(t *testing.T) {
	gt.True(t, model.MarkerPolicyReject.IsValid())
	gt.True(t, model.MarkerPolicyFirst.IsValid())
	gt.V(t, model.MarkerPolicy("newest").IsValid()).Equal(false)
	gt.V(t, model.MarkerPolicy("").IsValid()).Equal(false)
}
