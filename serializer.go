package multiverse

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

/*
NodeSnapshot is the persisted form of one branch: the sole durable format
and the sole integration point for external tooling. Amplitudes are stored
as [real, imaginary] pairs and both labels and observable names are sorted
on the way out, so equal trees always dump identically.
*/
type NodeSnapshot struct {
	ID                  string                `json:"id"`
	Weight              float64               `json:"weight"`
	System              map[string][2]float64 `json:"system"`
	History             []string              `json:"history"`
	MeasuredObservables []string              `json:"measured_observables"`
	Children            []*NodeSnapshot       `json:"children"`
}

// CountNodes returns the total node count of the snapshot subtree,
// including the receiver.
func (s *NodeSnapshot) CountNodes() int {
	count := 1
	for _, child := range s.Children {
		count += child.CountNodes()
	}
	return count
}

// DumpTree writes the subtree rooted at the node as indented JSON. With
// expandLazy set the entire pending tree is materialized first; otherwise
// the dump is a partial snapshot of what has been observed so far.
func DumpTree(w io.Writer, root *BranchNode, expandLazy bool) error {
	snap, err := root.Snapshot(expandLazy)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// DumpTreeFile writes the dump to a file, creating or truncating it.
func DumpTreeFile(path string, root *BranchNode, expandLazy bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	if err := DumpTree(f, root, expandLazy); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadTree reads a dumped tree back into its snapshot form.
func LoadTree(r io.Reader) (*NodeSnapshot, error) {
	var snap NodeSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding tree dump: %w", err)
	}
	return &snap, nil
}

// LoadTreeFile reads a dumped tree from a file.
func LoadTreeFile(path string) (*NodeSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump file: %w", err)
	}
	defer f.Close()
	return LoadTree(f)
}
