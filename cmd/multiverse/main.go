// Package main implements the multiverse CLI: a demonstration driver and
// tree dumper over the branching engine's public surface. It performs no
// branching logic itself.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/breakingcircuits1337/multiverse"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	weightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	histStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "multiverse",
	Short: "Many-worlds branching simulation",
	Long: `multiverse simulates the many-worlds branching of a quantum system:
each measurement splits the current branch into a weighted tree of
descendant branches, one per possible outcome.`,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the demonstration simulation",
	RunE:  runDemo,
}

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Run the demonstration and dump the fully expanded tree as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(dumpCmd)
}

// buildDemoTree reproduces the reference scenario: a spin measurement on
// an up/down superposition, a blocked repeat measurement, a charge
// measurement in the first child, and a partial measurement on a Bell
// pair grafted onto the second child.
func buildDemoTree() (*multiverse.BranchNode, error) {
	state, err := multiverse.NewUniformState("up", "down")
	if err != nil {
		return nil, err
	}
	root := multiverse.NewRootBranch(state, nil)

	if _, err := root.Measure("spin_z"); err != nil {
		return nil, err
	}
	// Repeat measurement: logged warning, no new branches.
	if _, err := root.Measure("spin_z"); err != nil {
		return nil, err
	}

	children, err := root.Children()
	if err != nil {
		return nil, err
	}

	if len(children) > 0 {
		charge, err := multiverse.NewUniformState("positive", "negative")
		if err != nil {
			return nil, err
		}
		children[0].ReplaceSystem(charge)
		if _, err := children[0].Measure("charge"); err != nil {
			return nil, err
		}
		if _, err := children[0].Children(); err != nil {
			return nil, err
		}
	}

	if len(children) > 1 {
		bell, err := multiverse.NewUniformState("00", "11")
		if err != nil {
			return nil, err
		}
		children[1].ReplaceSystem(bell)
		if _, err := children[1].Measure("bell_first_qubit", 0); err != nil {
			return nil, err
		}
		if _, err := children[1].Children(); err != nil {
			return nil, err
		}
	}

	return root, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	root, err := buildDemoTree()
	if err != nil {
		return err
	}
	fmt.Println("--- Final Multiverse State ---")
	snap, err := root.Snapshot(false)
	if err != nil {
		return err
	}
	renderTree(snap, "", true)
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	root, err := buildDemoTree()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return multiverse.DumpTree(os.Stdout, root, true)
	}
	if err := multiverse.DumpTreeFile(args[0], root, true); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", args[0])
	return nil
}

// renderTree prints the snapshot as an ASCII tree, one line per branch
// with its Born probabilities, and the history of leaf branches beneath.
func renderTree(snap *multiverse.NodeSnapshot, prefix string, isLast bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}

	fmt.Printf("%s%s%s %s: {%s}\n",
		prefix,
		connector,
		idStyle.Render("Branch "+snap.ID),
		weightStyle.Render(fmt.Sprintf("(w=%.5f)", snap.Weight)),
		formatProbabilities(snap.System),
	)

	childPrefix := prefix + "│   "
	if isLast {
		childPrefix = prefix + "    "
	}
	for i, child := range snap.Children {
		renderTree(child, childPrefix, i == len(snap.Children)-1)
	}
	if len(snap.Children) == 0 && len(snap.History) > 0 {
		fmt.Printf("%s    %s\n", childPrefix, histStyle.Render("History: "+strings.Join(snap.History, " | ")))
	}
}

func formatProbabilities(system map[string][2]float64) string {
	labels := make([]string, 0, len(system))
	for label := range system {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		amp := system[label]
		prob := amp[0]*amp[0] + amp[1]*amp[1]
		parts = append(parts, fmt.Sprintf("%s:%.2f", label, prob))
	}
	return strings.Join(parts, ", ")
}
