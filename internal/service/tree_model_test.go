package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// rainSplitEnsemble is a single tree splitting on rainfall at 150: wet
// conditions favor rice, dry conditions favor maize.
func rainSplitEnsemble() *TreeEnsemble {
	return &TreeEnsemble{
		Classes: []string{"maize", "rice"},
		Trees: []Tree{
			{Nodes: []TreeNode{
				{Feature: 5, Threshold: 150, Left: 1, Right: 2, Value: []float64{0.5, 0.5}},
				{Feature: -1, Value: []float64{0.9, 0.1}},
				{Feature: -1, Value: []float64{0.1, 0.9}},
			}},
		},
	}
}

func TestTreeEnsemble_PredictProba(t *testing.T) {
	ensemble := rainSplitEnsemble()

	wet := []float64{80, 48, 40, 24, 82, 236, 6.4}
	probs := ensemble.PredictProba(wet)
	require.Equal(t, []float64{0.1, 0.9}, probs)

	dry := []float64{80, 48, 40, 24, 60, 90, 6.4}
	probs = ensemble.PredictProba(dry)
	require.Equal(t, []float64{0.9, 0.1}, probs)
}

func TestTreeEnsemble_PathContributions(t *testing.T) {
	ensemble := rainSplitEnsemble()

	wet := []float64{80, 48, 40, 24, 82, 236, 6.4}
	contribs := ensemble.PathContributions(wet, ensemble.ClassIndex("rice"))

	require.InDelta(t, 0.4, contribs[5], 1e-9)
	for i, c := range contribs {
		if i == 5 {
			continue
		}
		require.Zero(t, c, "feature %d was never split on", i)
	}
}

func TestTreeEnsemble_ClassIndex(t *testing.T) {
	ensemble := rainSplitEnsemble()
	require.Equal(t, 1, ensemble.ClassIndex("rice"))
	require.Equal(t, 0, ensemble.ClassIndex("maize"))
	require.Equal(t, -1, ensemble.ClassIndex("cotton"))
}

func TestLoadTreeModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	dump := `{
		"classes": ["maize", "rice"],
		"trees": [{"nodes": [
			{"feature": 5, "threshold": 150, "left": 1, "right": 2, "value": [0.5, 0.5]},
			{"feature": -1, "value": [0.9, 0.1]},
			{"feature": -1, "value": [0.1, 0.9]}
		]}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	ensemble, err := LoadTreeModel(path)
	require.NoError(t, err)
	require.Equal(t, []string{"maize", "rice"}, ensemble.Classes)
	require.Len(t, ensemble.Trees, 1)
}

func TestLoadTreeModel_RejectsBadDumps(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTreeModel(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	cases := map[string]string{
		"not json":          `{{`,
		"no classes":        `{"classes": [], "trees": [{"nodes": [{"feature": -1, "value": []}]}]}`,
		"no trees":          `{"classes": ["rice"], "trees": []}`,
		"value mismatch":    `{"classes": ["maize", "rice"], "trees": [{"nodes": [{"feature": -1, "value": [1.0]}]}]}`,
		"feature range":     `{"classes": ["rice"], "trees": [{"nodes": [{"feature": 9, "threshold": 1, "left": 0, "right": 0, "value": [1.0]}]}]}`,
		"child out of tree": `{"classes": ["rice"], "trees": [{"nodes": [{"feature": 0, "threshold": 1, "left": 5, "right": 0, "value": [1.0]}]}]}`,
	}
	for name, dump := range cases {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))
		_, err := LoadTreeModel(path)
		require.Error(t, err, name)
	}
}
