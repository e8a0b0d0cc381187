package service

import (
	"encoding/json"
	"fmt"
	"os"

	"agrisage/internal/model"
)

// TreeNode is one node of a decision tree. Internal nodes split on
// Feature < Threshold; leaves carry the class distribution in Value.
// Every node stores Value so path attributions can be computed.
type TreeNode struct {
	Feature   int       `json:"feature"` // index into model.FeatureOrder, -1 for leaves
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"` // class probability distribution at this node
}

// Tree is a single decision tree, nodes[0] being the root.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeEnsemble is an exported crop classifier: a forest of probability trees
// averaged together.
type TreeEnsemble struct {
	Classes []string `json:"classes"`
	Trees   []Tree   `json:"trees"`
}

// LoadTreeModel reads a tree-ensemble dump from disk and validates it.
func LoadTreeModel(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ensemble TreeEnsemble
	if err := json.Unmarshal(data, &ensemble); err != nil {
		return nil, fmt.Errorf("parse tree model: %w", err)
	}
	if err := ensemble.validate(); err != nil {
		return nil, fmt.Errorf("invalid tree model: %w", err)
	}
	return &ensemble, nil
}

func (e *TreeEnsemble) validate() error {
	if len(e.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("no trees")
	}
	for ti, tree := range e.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, node := range tree.Nodes {
			if len(node.Value) != len(e.Classes) {
				return fmt.Errorf("tree %d node %d: value length %d != %d classes", ti, ni, len(node.Value), len(e.Classes))
			}
			if node.Feature < 0 {
				continue // leaf
			}
			if node.Feature >= len(model.FeatureOrder) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, node.Feature)
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}

// PredictProba averages the leaf distributions reached across all trees.
func (e *TreeEnsemble) PredictProba(ordered []float64) []float64 {
	probs := make([]float64, len(e.Classes))
	for _, tree := range e.Trees {
		leaf := tree.descend(ordered)
		for i, p := range leaf.Value {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(e.Trees))
	}
	return probs
}

func (t *Tree) descend(ordered []float64) *TreeNode {
	node := &t.Nodes[0]
	for node.Feature >= 0 {
		if ordered[node.Feature] < node.Threshold {
			node = &t.Nodes[node.Left]
		} else {
			node = &t.Nodes[node.Right]
		}
	}
	return node
}

// PathContributions attributes the predicted probability of classIdx to the
// features split on along each decision path: every step's change in the
// node-level class probability is credited to the split feature, averaged
// over the forest.
func (e *TreeEnsemble) PathContributions(ordered []float64, classIdx int) []float64 {
	contributions := make([]float64, len(model.FeatureOrder))
	for _, tree := range e.Trees {
		node := &tree.Nodes[0]
		for node.Feature >= 0 {
			var child *TreeNode
			if ordered[node.Feature] < node.Threshold {
				child = &tree.Nodes[node.Left]
			} else {
				child = &tree.Nodes[node.Right]
			}
			contributions[node.Feature] += child.Value[classIdx] - node.Value[classIdx]
			node = child
		}
	}
	for i := range contributions {
		contributions[i] /= float64(len(e.Trees))
	}
	return contributions
}

// ClassIndex returns the index of a crop label, or -1.
func (e *TreeEnsemble) ClassIndex(crop string) int {
	for i, c := range e.Classes {
		if c == crop {
			return i
		}
	}
	return -1
}
