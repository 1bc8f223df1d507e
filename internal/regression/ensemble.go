package regression

import (
	"errors"
	"fmt"
)

// Node is a single node of a regression tree.
// Split nodes send x[Feature] <= Threshold to Left, otherwise to Right.
// Leaf nodes (Leaf = true) return Value.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a regression tree stored as a flat node array rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d, model has %d", i, n.Feature, numFeatures)
		}
		// Children must come after their parent, which also rules out cycles
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, n.Left, n.Right)
		}
	}
	return nil
}

func (t *Tree) eval(features []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Ensemble is a gradient boosted tree regressor:
// Init + LearningRate · Σ tree(x)
type Ensemble struct {
	Init         float64
	LearningRate float64
	Trees        []Tree

	numFeatures int
}

// Predict evaluates every tree and combines them
func (m *Ensemble) Predict(features []float64) (float64, error) {
	if len(features) != m.numFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", m.numFeatures, len(features))
	}

	sum := 0.0
	for i := range m.Trees {
		sum += m.Trees[i].eval(features)
	}
	return m.Init + m.LearningRate*sum, nil
}

// NumFeatures returns the expected vector length
func (m *Ensemble) NumFeatures() int {
	return m.numFeatures
}
