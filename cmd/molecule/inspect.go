package molecule

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/crowelm/crowelm/internal/bootstrap"
	"github.com/crowelm/crowelm/internal/config"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "molecule",
		Short: "Offline structure tools",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newInspect())
	return cmd
}

func newInspect() *cobra.Command {
	var (
		mode      string
		sceneJSON bool
	)
	cmd := &cobra.Command{
		Use:          "inspect <file.pdb>",
		Short:        "Parse a PDB file and print its atoms, bonds and formula",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := bootstrap.NewEngine(config.Global())
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			g, err := engine.Parse(string(data))
			if err != nil {
				return err
			}
			if !sceneJSON {
				Render(cmd.OutOrStdout(), g)
				return nil
			}
			m, ok := molecule.ParseMode(mode)
			if !ok {
				return code.ParamErr.WithMsgf("unknown display mode %q", mode)
			}
			if mode == "" {
				m = engine.Mode
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(engine.Scene(g, m))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "display mode for --scene: ball-stick, space-fill or wireframe")
	cmd.Flags().BoolVar(&sceneJSON, "scene", false, "print the render scene as JSON instead of tables")
	return cmd
}

// Render writes the summary, atom and bond tables for g.
func Render(w io.Writer, g *molecule.Graph) {
	c := molecule.Centroid(g.Atoms)
	fmt.Fprintf(w, "Formula:  %s\n", molecule.Formula(g.Atoms))
	fmt.Fprintf(w, "Atoms:    %d\n", len(g.Atoms))
	fmt.Fprintf(w, "Bonds:    %d\n", len(g.Bonds))
	fmt.Fprintf(w, "Centroid: (%.3f, %.3f, %.3f)\n\n", c.X, c.Y, c.Z)

	comp := molecule.Composition(g.Atoms)
	elements := make([]string, 0, len(comp))
	for e := range comp {
		elements = append(elements, e)
	}
	slices.Sort(elements)
	ct := table.NewWriter()
	ct.SetOutputMirror(w)
	ct.SetStyle(table.StyleLight)
	ct.AppendHeader(table.Row{"Element", "Count"})
	for _, e := range elements {
		ct.AppendRow(table.Row{e, comp[e]})
	}
	ct.Render()
	fmt.Fprintln(w)

	at := table.NewWriter()
	at.SetOutputMirror(w)
	at.SetStyle(table.StyleLight)
	at.AppendHeader(table.Row{"#", "Serial", "Name", "Element", "Residue", "Chain", "X", "Y", "Z"})
	for i, a := range g.Atoms {
		at.AppendRow(table.Row{
			i, a.Serial, a.Name, a.Element, a.Residue, a.Chain,
			fmt.Sprintf("%.3f", a.Position.X),
			fmt.Sprintf("%.3f", a.Position.Y),
			fmt.Sprintf("%.3f", a.Position.Z),
		})
	}
	at.Render()

	if len(g.Bonds) == 0 {
		return
	}
	fmt.Fprintln(w)
	bt := table.NewWriter()
	bt.SetOutputMirror(w)
	bt.SetStyle(table.StyleLight)
	bt.AppendHeader(table.Row{"First", "Second", "Order", "Length"})
	for _, b := range g.Bonds {
		bt.AppendRow(table.Row{
			fmt.Sprintf("%d %s", b.First, g.Atoms[b.First].Element),
			fmt.Sprintf("%d %s", b.Second, g.Atoms[b.Second].Element),
			b.Order,
			fmt.Sprintf("%.3f", molecule.Distance(g.Atoms[b.First].Position, g.Atoms[b.Second].Position)),
		})
	}
	bt.Render()
}
